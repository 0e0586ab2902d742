// Package router keeps the active theme and the navigable location in
// lockstep.
package router

import (
	"sync"

	"themerec/navigation"
	"themerec/themes"

	"go.uber.org/zap"
)

// Router is the single source of truth for the active theme.
//
// Programmatic changes go through Navigate and push a history entry.
// Back/forward transitions reported by the Navigator re-derive the theme and
// never write to the location.
type Router struct {
	nav    navigation.Navigator
	logger *zap.Logger

	mu        sync.Mutex
	theme     themes.Theme
	listeners map[int]func(old, new themes.Theme)
	nextID    int

	unsubscribe func()
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used for transition events.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New mounts a router on nav. The theme comes from the path; when the path
// is not already canonical the current entry is replaced so back navigation
// is not polluted.
func New(nav navigation.Navigator, opts ...Option) *Router {
	r := &Router{
		nav:       nav,
		logger:    zap.NewNop(),
		listeners: make(map[int]func(old, new themes.Theme)),
	}
	for _, opt := range opts {
		opt(r)
	}

	loc := nav.Read()
	r.theme = themes.FromPath(loc.Path)
	staleState := loc.State != nil && loc.State.Theme != string(r.theme)
	if themes.Slug(loc.Path) != string(r.theme) || staleState {
		r.logger.Debug("Normalizing initial location",
			zap.String("path", loc.Path),
			zap.String("theme", r.theme.String()))
		nav.Replace(entryFor(r.theme))
	}

	r.unsubscribe = nav.Subscribe(r.restore)
	return r
}

// Theme returns the active theme.
func (r *Router) Theme() themes.Theme {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.theme
}

// Navigate activates candidate after coercing it against the catalog.
// Navigating to the active theme is a no-op and adds no history entry.
func (r *Router) Navigate(candidate string) {
	next := themes.Coerce(candidate)

	r.mu.Lock()
	prev := r.theme
	if next == prev {
		r.mu.Unlock()
		return
	}
	r.nav.Push(entryFor(next))
	r.theme = next
	fns := r.snapshotListeners()
	r.mu.Unlock()

	r.logger.Info("Theme navigated",
		zap.String("from", prev.String()),
		zap.String("to", next.String()))
	notify(fns, prev, next)
}

// restore handles a back/forward transition. An entry whose path disagrees
// with the theme it resolves to is rewritten in place; the stack keeps its
// length.
func (r *Router) restore(loc navigation.Location) {
	next := resolve(loc)

	r.mu.Lock()
	if themes.Slug(loc.Path) != string(next) {
		r.logger.Debug("Rewriting restored location",
			zap.String("path", loc.Path),
			zap.String("theme", next.String()))
		r.nav.Replace(entryFor(next))
	}
	prev := r.theme
	if next == prev {
		r.mu.Unlock()
		return
	}
	r.theme = next
	fns := r.snapshotListeners()
	r.mu.Unlock()

	r.logger.Info("Theme restored from history",
		zap.String("path", loc.Path),
		zap.String("from", prev.String()),
		zap.String("to", next.String()))
	notify(fns, prev, next)
}

// OnChange registers fn to run synchronously after every theme change.
func (r *Router) OnChange(fn func(old, new themes.Theme)) (cancel func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// Close detaches the router from its navigator.
func (r *Router) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

// snapshotListeners must be called with r.mu held.
func (r *Router) snapshotListeners() []func(old, new themes.Theme) {
	fns := make([]func(old, new themes.Theme), 0, len(r.listeners))
	for id := 0; id < r.nextID; id++ {
		if fn, ok := r.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

func notify(fns []func(old, new themes.Theme), prev, next themes.Theme) {
	for _, fn := range fns {
		fn(prev, next)
	}
}

// resolve prefers the entry state and falls back to the path. The result is
// always a catalog member, whatever the entry contains.
func resolve(loc navigation.Location) themes.Theme {
	if loc.State != nil && loc.State.Theme != "" {
		return themes.Coerce(loc.State.Theme)
	}
	return themes.FromPath(loc.Path)
}

func entryFor(t themes.Theme) navigation.Location {
	return navigation.Location{
		Path:  themes.Path(t),
		State: &navigation.EntryState{Theme: string(t)},
	}
}
