// Package tui is the terminal front end: a bubbletea model over the theme
// router and the session controller, with an in-memory history standing in
// for the browser location.
package tui

import (
	"context"

	"themerec/navigation"
	"themerec/router"
	"themerec/session"
	"themerec/themes"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"
)

const (
	headerHeight = 4
	inputHeight  = 5
	footerHeight = 2
	defaultWidth = 80
)

// turnDoneMsg reports a finished service call. The outcome is already in the
// controller state.
type turnDoneMsg struct {
	err error
}

// Model is the bubbletea model. The router, history and controller are
// shared pointers, so copies of Model observe the same session.
type Model struct {
	ctx     context.Context
	history *navigation.History
	router  *router.Router
	ctrl    *session.Controller
	logger  *zap.Logger

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	styles   Styles

	width      int
	height     int
	ready      bool
	exampleIdx int
}

// Options configure New.
type Options struct {
	// StartPath is the initial location, e.g. "/movies".
	StartPath  string
	StaleGuard bool
	Logger     *zap.Logger
}

// New mounts the router on a fresh history at opts.StartPath and binds a
// controller to it.
func New(ctx context.Context, svc session.Recommender, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	history := navigation.NewHistory(navigation.Location{Path: opts.StartPath})
	r := router.New(history, router.WithLogger(logger))
	ctrl := session.New(svc, r.Theme(),
		session.WithLogger(logger),
		session.WithStaleGuard(opts.StaleGuard),
	)
	r.OnChange(func(_, next themes.Theme) {
		ctrl.SetTheme(next)
	})

	ta := textarea.New()
	ta.Focus()
	ta.Prompt = "| "
	ta.CharLimit = 2000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.SetWidth(defaultWidth - 4)
	ta.KeyMap.InsertNewline.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:      ctx,
		history:  history,
		router:   r,
		ctrl:     ctrl,
		logger:   logger,
		textarea: ta,
		viewport: viewport.New(defaultWidth, 20),
		spinner:  sp,
		width:    defaultWidth,
	}
	m.renderer = newRenderer(defaultWidth)
	m.applyTheme()
	m.refresh()
	return m
}

func newRenderer(width int) *glamour.TermRenderer {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		return nil
	}
	return renderer
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width, 1)
		m.height = max(msg.Height, 1)

		vpHeight := max(m.height-headerHeight-inputHeight-footerHeight, 1)
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(max(m.width-4, 1))
		m.renderer = newRenderer(m.width)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case turnDoneMsg:
		if msg.err != nil {
			m.logger.Debug("Turn finished with error", zap.Error(msg.err))
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.ctrl.Snapshot().Loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "enter":
		pending := m.ctrl.Prepare(m.textarea.Value())
		if pending == nil {
			return m, nil
		}
		m.textarea.Reset()
		m.refresh()
		return m, tea.Batch(runTurn(m.ctx, pending), m.spinner.Tick)

	case "tab":
		m.router.Navigate(themes.Next(m.router.Theme()).String())
		m.afterNavigation()
		return m, nil

	case "shift+tab":
		m.router.Navigate(themes.Prev(m.router.Theme()).String())
		m.afterNavigation()
		return m, nil

	case "alt+left":
		if m.history.Back() {
			m.afterNavigation()
		}
		return m, nil

	case "alt+right":
		if m.history.Forward() {
			m.afterNavigation()
		}
		return m, nil

	case "ctrl+r":
		m.ctrl.Reset()
		m.refresh()
		return m, nil

	case "ctrl+e":
		examples := themes.Get(m.router.Theme()).Examples
		if len(examples) > 0 {
			m.textarea.SetValue(examples[m.exampleIdx%len(examples)])
			m.exampleIdx++
		}
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func runTurn(ctx context.Context, pending *session.Pending) tea.Cmd {
	return func() tea.Msg {
		return turnDoneMsg{err: pending.Run(ctx)}
	}
}

func (m *Model) afterNavigation() {
	m.exampleIdx = 0
	m.applyTheme()
	m.refresh()
}

func (m *Model) applyTheme() {
	theme := m.router.Theme()
	m.styles = NewStyles(theme)
	m.spinner.Style = m.styles.Spinner
	m.textarea.Placeholder = themes.Get(theme).Placeholder
}

// refresh re-renders the scrollable content from the controller state.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderContent(m.ctrl.Snapshot()))
	m.viewport.GotoBottom()
}
