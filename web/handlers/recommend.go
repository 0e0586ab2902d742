package handlers

import (
	"context"
	"errors"
	"net/http"

	"themerec/navigation"
	"themerec/web/middleware"
	"themerec/web/templates/components"
	"themerec/web/templates/pages"
	"themerec/web/workspace"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errNoSession = errors.New("session middleware did not run")

type RecommendHandler struct {
	store   *workspace.Store
	logger  *zap.Logger
	baseCtx context.Context
}

type MessageRequest struct {
	Message string `json:"message" form:"message"`
}

type NavigateRequest struct {
	Theme string `json:"theme" form:"theme"`
}

// NewRecommendHandler serves the workspace pages. Service calls started by a
// request run under baseCtx so they outlive the request but not the server.
func NewRecommendHandler(baseCtx context.Context, store *workspace.Store, logger *zap.Logger) *RecommendHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendHandler{
		store:   store,
		logger:  logger,
		baseCtx: baseCtx,
	}
}

// Index serves GET / and GET /:theme. A normal load mounts a fresh workspace;
// an htmx history restore replays back/forward into the existing one.
func (h *RecommendHandler) Index(c *gin.Context) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		respondWithError(c, http.StatusInternalServerError, errNoSession, "Session not initialized", h.logger)
		return
	}
	path := c.Request.URL.Path

	if isHistoryRestore(c) {
		if ws, ok := h.store.Get(sessionID); ok {
			ws.Lock()
			ws.Navigator.Restore(navigation.Location{Path: path})
			op := ws.Navigator.TakePending()
			state := ws.Controller.Snapshot()
			ws.Unlock()

			h.logger.Debug("History restored",
				zap.String("session_id", sessionID.String()),
				zap.String("path", path),
				zap.String("theme", state.Theme.String()))
			// htmx ignores response headers on a restore, so a rewritten
			// entry is applied by the swapped content itself.
			if op.Kind == workspace.OpReplace {
				h.render(c, templ.Join(components.App(state), components.ReplaceEntry(state.Theme, op.Location.Path)))
				return
			}
			h.render(c, components.App(state))
			return
		}
	}

	ws := h.store.Mount(sessionID, path)
	ws.Lock()
	op := ws.Navigator.TakePending()
	state := ws.Controller.Snapshot()
	ws.Unlock()

	if isHTMX(c) {
		writeLocation(c, op)
		h.render(c, components.App(state))
		return
	}

	replaceURL := ""
	if op.Kind != workspace.OpNone {
		replaceURL = op.Location.Path
	}
	h.render(c, pages.Page(state, replaceURL))
}

// Navigate switches the workspace to another theme.
func (h *RecommendHandler) Navigate(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	var req NavigateRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Invalid request")
		return
	}

	ws.Lock()
	ws.Router.Navigate(req.Theme)
	op := ws.Navigator.TakePending()
	state := ws.Controller.Snapshot()
	ws.Unlock()

	if !isHTMX(c) {
		c.Redirect(http.StatusSeeOther, ws.Navigator.Read().Path)
		return
	}
	writeLocation(c, op)
	h.render(c, components.App(state))
}

// SendMessage appends the user turn and starts the service call in the
// background. The returned panel is already loading and polls for the answer.
func (h *RecommendHandler) SendMessage(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	var req MessageRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Invalid request")
		return
	}

	ws.Lock()
	pending := ws.Controller.Prepare(req.Message)
	state := ws.Controller.Snapshot()
	ws.Unlock()

	if pending != nil {
		h.logger.Info("Processing recommendation message",
			zap.String("session_id", ws.ID.String()),
			zap.String("theme", state.Theme.String()),
			zap.Int("turn", len(state.Transcript)))
		sessionID := ws.ID.String()
		go func() {
			if err := pending.Run(h.baseCtx); err != nil {
				h.logger.Debug("Recommendation turn ended with error",
					zap.String("session_id", sessionID),
					zap.Error(err))
			}
		}()
	}
	h.render(c, components.Panel(state))
}

// Reset starts a new conversation in the current theme.
func (h *RecommendHandler) Reset(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	ws.Controller.Reset()
	h.render(c, components.Panel(ws.Controller.Snapshot()))
}

// Panel returns the current conversation panel.
func (h *RecommendHandler) Panel(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	h.render(c, components.Panel(ws.Controller.Snapshot()))
}

// workspace resolves the mounted page of the request. When it is gone
// (evicted, expired or a restarted server) the browser is told to reload.
func (h *RecommendHandler) workspace(c *gin.Context) (*workspace.Workspace, bool) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		respondWithError(c, http.StatusInternalServerError, errNoSession, "Session not initialized", h.logger)
		return nil, false
	}
	ws, ok := h.store.Get(sessionID)
	if ok {
		return ws, true
	}

	h.logger.Debug("No workspace for session, asking for reload",
		zap.String("session_id", sessionID.String()))
	if isHTMX(c) {
		c.Header("HX-Refresh", "true")
		c.Status(http.StatusOK)
	} else {
		c.Redirect(http.StatusSeeOther, "/")
	}
	return nil, false
}

func (h *RecommendHandler) render(c *gin.Context, component templ.Component) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		h.logger.Error("Failed to render component", zap.Error(err))
	}
}

// writeLocation flushes a recorded history write into htmx response headers.
func writeLocation(c *gin.Context, op workspace.Op) {
	switch op.Kind {
	case workspace.OpPush:
		c.Header("HX-Push-Url", op.Location.Path)
	case workspace.OpReplace:
		c.Header("HX-Replace-Url", op.Location.Path)
	}
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

func isHistoryRestore(c *gin.Context) bool {
	return c.GetHeader("HX-History-Restore-Request") == "true"
}
