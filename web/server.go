package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"themerec/config"
	"themerec/session"
	"themerec/web/handlers"
	"themerec/web/middleware"
	"themerec/web/workspace"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// RecommendationService is the part of the service client the browser front
// end uses.
type RecommendationService interface {
	session.Recommender
	handlers.HealthChecker
}

type Server struct {
	router  *gin.Engine
	store   *workspace.Store
	limiter *middleware.SessionRateLimiter
	svc     RecommendationService
	logger  *zap.Logger
	config  *config.Config
	baseCtx context.Context
}

// NewServer builds the gin engine. Service calls started by requests run
// under baseCtx.
func NewServer(baseCtx context.Context, svc RecommendationService, logger *zap.Logger, cfg *config.Config) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	store, err := workspace.NewStore(svc, workspace.Options{
		Capacity:   cfg.MaxBrowserSessions,
		StaleGuard: cfg.SessionDiscardStale,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.SessionMiddleware())

	server := &Server{
		router: router,
		store:  store,
		limiter: middleware.NewSessionRateLimiter(middleware.RateLimiterConfig{
			MessagesPerMinute: cfg.RateLimitMessagesPerMin,
			BurstSize:         cfg.RateLimitBurstSize,
			CleanupInterval:   cfg.CleanupInterval,
			IdleAfter:         cfg.SessionIdleTimeout,
		}, logger),
		svc:     svc,
		logger:  logger,
		config:  cfg,
		baseCtx: baseCtx,
	}

	server.setupRoutes()
	return server, nil
}

func (s *Server) setupRoutes() {
	recommendHandler := handlers.NewRecommendHandler(s.baseCtx, s.store, s.logger)
	apiHandler := handlers.NewAPIHandler(s.store, s.svc, s.logger)

	s.router.GET("/favicon.ico", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	s.router.GET("/healthz", apiHandler.Health)
	s.router.GET("/health", apiHandler.Liveness)

	api := s.router.Group("/api")
	{
		api.GET("/state", apiHandler.State)
		api.GET("/themes", apiHandler.Themes)
		// Service endpoints belong to the upstream, never to a theme page.
		api.Any("/v1/*path", apiHandler.ServiceRoute)
	}

	s.router.GET("/panel", recommendHandler.Panel)
	s.router.POST("/navigate", recommendHandler.Navigate)
	s.router.POST("/messages", middleware.RateLimitMiddleware(s.limiter), recommendHandler.SendMessage)
	s.router.POST("/reset", recommendHandler.Reset)

	// Page routes last: /:theme accepts any slug and normalizes it.
	s.router.GET("/", recommendHandler.Index)
	s.router.GET("/:theme", recommendHandler.Index)
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Store is the browser workspace store, shared with the cleanup service.
func (s *Server) Store() *workspace.Store {
	return s.store
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.limiter.Stop()
}

func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))
	defer s.Close()

	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("Web server failed to start", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
