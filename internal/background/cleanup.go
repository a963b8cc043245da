package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/dbpilot/aegis/internal/repositories"
)

// CleanupManager periodically removes rate limit counters that have been idle
// past the retention period. Counters with an active block are never swept;
// security events are append-only and never touched.
type CleanupManager struct {
	rateLimitRepo *repositories.RateLimitRepository
	logger        *slog.Logger
	interval      time.Duration
	retention     time.Duration
	stopCh        chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	rateLimitRepo *repositories.RateLimitRepository,
	logger *slog.Logger,
	interval time.Duration,
	retention time.Duration,
) *CleanupManager {
	return &CleanupManager{
		rateLimitRepo: rateLimitRepo,
		logger:        logger,
		interval:      interval,
		retention:     retention,
		stopCh:        make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runSweep(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-cm.retention)

	rowsDeleted, err := cm.rateLimitRepo.DeleteIdleCounters(sweepCtx, cutoff)
	if err != nil {
		cm.logger.Error("failed to sweep idle rate limit counters", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		cm.logger.Info("idle rate limit counters removed", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
