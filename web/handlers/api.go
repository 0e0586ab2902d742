package handlers

import (
	"context"
	"net/http"
	"time"

	"themerec/recservice"
	"themerec/themes"
	"themerec/web/middleware"
	"themerec/web/workspace"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthTimeout = 5 * time.Second

// HealthChecker reports the state of the recommendation service.
type HealthChecker interface {
	Health(ctx context.Context) (*recservice.HealthStatus, error)
}

type APIHandler struct {
	store  *workspace.Store
	health HealthChecker
	logger *zap.Logger
}

func NewAPIHandler(store *workspace.Store, health HealthChecker, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		store:  store,
		health: health,
		logger: logger,
	}
}

// State returns the renderer contract of the current workspace as JSON.
func (h *APIHandler) State(c *gin.Context) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		respondWithError(c, http.StatusInternalServerError, errNoSession, "Session not initialized", h.logger)
		return
	}
	ws, ok := h.store.Get(sessionID)
	if !ok {
		respondWithClientError(c, http.StatusNotFound, "No active workspace")
		return
	}
	c.JSON(http.StatusOK, ws.Controller.Snapshot())
}

// Themes returns the catalog in display order.
func (h *APIHandler) Themes(c *gin.Context) {
	all := themes.All()
	infos := make([]themes.Info, 0, len(all))
	for _, t := range all {
		infos = append(infos, themes.Get(t))
	}
	c.JSON(http.StatusOK, gin.H{
		"default": themes.Default(),
		"themes":  infos,
	})
}

// Health reports front end liveness and the service health check.
func (h *APIHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status, err := h.health.Health(ctx)
	if err != nil {
		h.logger.Warn("Recommendation service health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "degraded",
			"service": "unavailable",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"service":    status.Status,
		"workspaces": h.store.Len(),
	})
}

// Liveness reports that the front end is up. It never calls the service, so
// a base URL that points back here cannot loop.
func (h *APIHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"workspaces": h.store.Len(),
	})
}

// ServiceRoute answers requests meant for the recommendation service. Seeing
// one usually means RECOMMEND_BASE_URL points at the front end.
func (h *APIHandler) ServiceRoute(c *gin.Context) {
	h.logger.Warn("Recommendation service request reached the front end",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path))
	respondWithClientError(c, http.StatusNotFound, "The recommendation service is not served by this front end")
}
