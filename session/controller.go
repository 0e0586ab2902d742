// Package session implements the per-theme recommendation conversation:
// transcript, history, in-flight state and the last structured result.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	apperrors "themerec/errors"
	"themerec/recservice"
	"themerec/themes"

	"go.uber.org/zap"
)

// Display messages for failures that carry no service message.
const (
	DefaultErrorMessage    = "request failed, please try again later"
	TimeoutErrorMessage    = "the recommendation service took too long to answer, please try again"
	InvalidResponseMessage = "the recommendation service returned an unreadable answer"
)

// Recommender is the one service operation the controller needs.
type Recommender interface {
	Recommend(ctx context.Context, theme themes.Theme, message string, history []recservice.Turn) (*recservice.Result, error)
}

// Message is one transcript entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// State is a copy of everything renderers may display.
type State struct {
	Theme      themes.Theme       `json:"theme"`
	Transcript []Message          `json:"transcript"`
	History    []recservice.Turn  `json:"-"`
	Result     *recservice.Result `json:"result"`
	Loading    bool               `json:"loading"`
	Error      string             `json:"error,omitempty"`
}

// Controller owns one session at a time. All mutations happen under mu; the
// only point where other operations can interleave is the service call in
// Pending.Run.
type Controller struct {
	svc          Recommender
	logger       *zap.Logger
	staleGuard   bool
	genericError string

	mu         sync.Mutex
	theme      themes.Theme
	generation uint64
	active     int // turns prepared in the current generation and not yet applied
	transcript []Message
	history    []recservice.Turn
	result     *recservice.Result
	loading    bool
	err        string

	listeners []func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStaleGuard controls whether completions started before the latest theme
// change or reset are discarded. When off, a late completion mutates whatever
// session is current when it lands.
func WithStaleGuard(enabled bool) Option {
	return func(c *Controller) { c.staleGuard = enabled }
}

// WithGenericError overrides DefaultErrorMessage.
func WithGenericError(msg string) Option {
	return func(c *Controller) {
		if strings.TrimSpace(msg) != "" {
			c.genericError = msg
		}
	}
}

func New(svc Recommender, theme themes.Theme, opts ...Option) *Controller {
	c := &Controller{
		svc:          svc,
		logger:       zap.NewNop(),
		staleGuard:   true,
		genericError: DefaultErrorMessage,
		theme:        themes.Coerce(string(theme)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUpdate registers fn to run after every state mutation. Listeners run
// outside the controller lock.
func (c *Controller) OnUpdate(fn func()) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// SetTheme re-initializes the session for theme. In-flight requests of the
// previous theme are not canceled.
func (c *Controller) SetTheme(theme themes.Theme) {
	theme = themes.Coerce(string(theme))

	c.mu.Lock()
	if theme == c.theme {
		c.mu.Unlock()
		return
	}
	prev := c.theme
	c.theme = theme
	c.clearLocked()
	c.loading = false
	fns := c.listeners
	c.mu.Unlock()

	c.logger.Debug("Session re-initialized for theme",
		zap.String("from", prev.String()),
		zap.String("to", theme.String()))
	notify(fns)
}

// Reset discards the transcript, history, result and error. Loading and the
// theme are left as they are.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.clearLocked()
	fns := c.listeners
	c.mu.Unlock()

	c.logger.Debug("Session reset")
	notify(fns)
}

// clearLocked must be called with c.mu held.
func (c *Controller) clearLocked() {
	c.generation++
	c.active = 0
	c.transcript = nil
	c.history = nil
	c.result = nil
	c.err = ""
}

// Pending is a turn whose user message is already in the transcript and
// whose service call has not run yet.
type Pending struct {
	c          *Controller
	theme      themes.Theme
	text       string
	history    []recservice.Turn
	generation uint64
	once       sync.Once
	err        error
}

// Text is the trimmed user message.
func (p *Pending) Text() string {
	return p.text
}

// Prepare performs the synchronous half of a send: it appends the user
// message, sets loading and clears the error. Blank input returns nil and
// changes nothing.
func (c *Controller) Prepare(text string) *Pending {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	c.mu.Lock()
	c.transcript = append(c.transcript, Message{Role: recservice.RoleUser, Content: trimmed})
	c.loading = true
	c.err = ""
	c.active++
	p := &Pending{
		c:          c,
		theme:      c.theme,
		text:       trimmed,
		history:    cloneTurns(c.history),
		generation: c.generation,
	}
	fns := c.listeners
	c.mu.Unlock()

	notify(fns)
	return p
}

// Run calls the service and applies the outcome. It runs at most once;
// later calls return the first outcome. Loading is cleared on every path.
func (p *Pending) Run(ctx context.Context) error {
	p.once.Do(func() {
		p.err = p.c.complete(ctx, p)
	})
	return p.err
}

// SendMessage is Prepare followed by Run. Blank input is ignored.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	p := c.Prepare(text)
	if p == nil {
		return nil
	}
	return p.Run(ctx)
}

func (c *Controller) complete(ctx context.Context, p *Pending) (err error) {
	var result *recservice.Result
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Recommender panicked", zap.Any("panic", r))
			result = nil
			err = fmt.Errorf("recommender panic: %v", r)
		}
		c.apply(p, result, err)
	}()

	result, err = c.svc.Recommend(ctx, p.theme, p.text, p.history)
	if err == nil && result == nil {
		err = fmt.Errorf("recommender returned no result")
	}
	return err
}

func (c *Controller) apply(p *Pending, result *recservice.Result, err error) {
	c.mu.Lock()
	stale := p.generation != c.generation
	if stale && c.staleGuard {
		// A reset keeps loading as it was; release it once nothing of the
		// current session is still in flight.
		release := c.loading && c.active == 0
		if release {
			c.loading = false
		}
		fns := c.listeners
		c.mu.Unlock()

		c.logger.Info("Discarding stale completion",
			zap.String("theme", p.theme.String()),
			zap.Bool("failed", err != nil))
		if release {
			notify(fns)
		}
		return
	}

	if !stale {
		c.active--
	}
	c.loading = false
	if err != nil {
		c.err = c.displayError(err)
	} else {
		c.transcript = append(c.transcript, Message{Role: recservice.RoleAssistant, Content: result.Message})
		c.history = append(c.history,
			recservice.Turn{Role: recservice.RoleUser, Content: p.text},
			recservice.Turn{Role: recservice.RoleAssistant, Content: result.Message},
		)
		c.result = result
		c.err = ""
	}
	fns := c.listeners
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("Recommendation turn failed",
			zap.String("theme", p.theme.String()),
			zap.Bool("stale", stale),
			zap.Error(err))
	} else {
		c.logger.Debug("Recommendation turn completed",
			zap.String("theme", p.theme.String()),
			zap.Bool("stale", stale),
			zap.Int("items", len(result.Recommendations)))
	}
	notify(fns)
}

// displayError prefers the service-supplied message, then a message for the
// failure class, then the generic one.
func (c *Controller) displayError(err error) string {
	if msg := recservice.UserMessage(err); msg != "" {
		return msg
	}
	switch {
	case apperrors.IsTimeout(err):
		return TimeoutErrorMessage
	case apperrors.IsInvalidResponse(err):
		return InvalidResponseMessage
	default:
		return c.genericError
	}
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	transcript := make([]Message, len(c.transcript))
	copy(transcript, c.transcript)
	return State{
		Theme:      c.theme,
		Transcript: transcript,
		History:    cloneTurns(c.history),
		Result:     c.result,
		Loading:    c.loading,
		Error:      c.err,
	}
}

// Theme is the theme of the current session.
func (c *Controller) Theme() themes.Theme {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.theme
}

func cloneTurns(turns []recservice.Turn) []recservice.Turn {
	out := make([]recservice.Turn, len(turns))
	copy(out, turns)
	return out
}

func notify(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
