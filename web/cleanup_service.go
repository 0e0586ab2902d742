package web

import (
	"context"
	"time"

	"themerec/config"
	"themerec/web/workspace"

	"go.uber.org/zap"
)

const defaultCleanupInterval = 10 * time.Minute

// CleanupService drops browser workspaces that have been idle too long
type CleanupService struct {
	store  *workspace.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewCleanupService creates a new cleanup service instance
func NewCleanupService(store *workspace.Store, logger *zap.Logger) *CleanupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// CleanupIdleWorkspaces removes workspaces not used within maxAge and
// returns how many were removed. Requests still in flight for a removed
// workspace complete against their controller and are then dropped.
func (cs *CleanupService) CleanupIdleWorkspaces(maxAge time.Duration) int {
	cutoffTime := cs.now().Add(-maxAge)

	idle := cs.store.IdleSince(cutoffTime)
	if len(idle) == 0 {
		cs.logger.Debug("No idle workspaces found")
		return 0
	}

	removed := 0
	for _, sessionID := range idle {
		if cs.store.Remove(sessionID) {
			removed++
		}
	}

	cs.logger.Info("Idle workspace cleanup completed",
		zap.Time("cutoff_time", cutoffTime),
		zap.Int("workspaces_removed", removed),
		zap.Int("workspaces_remaining", cs.store.Len()))
	return removed
}

// StartWorkspaceCleanup sweeps idle workspaces every CleanupInterval until
// ctx is done. It returns immediately when cleanup is disabled.
func StartWorkspaceCleanup(ctx context.Context, cfg *config.Config, cs *CleanupService, logger *zap.Logger) error {
	if !cfg.CleanupEnabled {
		logger.Info("Workspace cleanup disabled")
		return nil
	}

	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	logger.Info("Starting workspace cleanup routine",
		zap.Duration("interval", interval),
		zap.Duration("idle_timeout", cfg.SessionIdleTimeout))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cs.CleanupIdleWorkspaces(cfg.SessionIdleTimeout)
		case <-ctx.Done():
			logger.Info("Workspace cleanup routine stopped")
			return nil
		}
	}
}
