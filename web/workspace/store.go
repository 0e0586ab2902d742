// Package workspace keeps the in-memory state of each browser session: one
// mounted page with its router, navigator and session controller.
package workspace

import (
	"sync"
	"time"

	"themerec/navigation"
	"themerec/router"
	"themerec/session"
	"themerec/themes"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Workspace is one mounted page. Lock it around router operations so the
// pending location write is flushed into the response that caused it.
type Workspace struct {
	ID         uuid.UUID
	Navigator  *BrowserNavigator
	Router     *router.Router
	Controller *session.Controller
	MountedAt  time.Time

	sync.Mutex
	lastAccess time.Time
	accessMu   sync.Mutex
	cancel     func()
}

// Touch records activity.
func (w *Workspace) Touch(now time.Time) {
	w.accessMu.Lock()
	w.lastAccess = now
	w.accessMu.Unlock()
}

// LastAccess is the time of the last request that used the workspace.
func (w *Workspace) LastAccess() time.Time {
	w.accessMu.Lock()
	defer w.accessMu.Unlock()
	return w.lastAccess
}

func (w *Workspace) close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.Router.Close()
}

// Options configure the sessions created by a Store.
type Options struct {
	Capacity   int
	StaleGuard bool
	Logger     *zap.Logger
	Now        func() time.Time
}

// Store is an LRU-bounded set of workspaces keyed by browser session ID.
type Store struct {
	svc    session.Recommender
	opts   Options
	logger *zap.Logger
	cache  *lru.Cache[uuid.UUID, *Workspace]
}

func NewStore(svc session.Recommender, opts Options) (*Store, error) {
	if opts.Capacity < 1 {
		opts.Capacity = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Store{svc: svc, opts: opts, logger: opts.Logger}

	cache, err := lru.NewWithEvict[uuid.UUID, *Workspace](opts.Capacity, func(id uuid.UUID, ws *Workspace) {
		ws.close()
	})
	if err != nil {
		return nil, err
	}
	s.cache = cache
	return s, nil
}

// Mount creates a fresh workspace for a full page load at path, replacing any
// previous workspace of the same browser session.
func (s *Store) Mount(id uuid.UUID, path string) *Workspace {
	now := s.opts.Now()
	nav := NewBrowserNavigator(navigation.Location{Path: path})
	r := router.New(nav, router.WithLogger(s.logger))
	ctrl := session.New(s.svc, r.Theme(),
		session.WithLogger(s.logger.With(zap.String("session_id", id.String()))),
		session.WithStaleGuard(s.opts.StaleGuard),
	)
	cancel := r.OnChange(func(_, next themes.Theme) {
		ctrl.SetTheme(next)
	})

	ws := &Workspace{
		ID:         id,
		Navigator:  nav,
		Router:     r,
		Controller: ctrl,
		MountedAt:  now,
		lastAccess: now,
		cancel:     cancel,
	}
	// Add on an existing key does not fire the eviction callback.
	if old, ok := s.cache.Peek(id); ok {
		old.close()
	}
	s.cache.Add(id, ws)

	s.logger.Debug("Workspace mounted",
		zap.String("session_id", id.String()),
		zap.String("path", path),
		zap.String("theme", r.Theme().String()))
	return ws
}

// Get returns the workspace of a browser session and marks it used.
func (s *Store) Get(id uuid.UUID) (*Workspace, bool) {
	ws, ok := s.cache.Get(id)
	if ok {
		ws.Touch(s.opts.Now())
	}
	return ws, ok
}

// Remove drops a workspace. In-flight requests of that workspace still
// complete against their controller.
func (s *Store) Remove(id uuid.UUID) bool {
	return s.cache.Remove(id)
}

// IdleSince lists the workspaces not used since cutoff.
func (s *Store) IdleSince(cutoff time.Time) []uuid.UUID {
	var ids []uuid.UUID
	for _, id := range s.cache.Keys() {
		ws, ok := s.cache.Peek(id)
		if ok && ws.LastAccess().Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Store) Len() int {
	return s.cache.Len()
}
