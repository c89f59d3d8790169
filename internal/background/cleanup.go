package background

import (
	"context"
	"log/slog"
	"time"
)

// StaleAttemptDeleter removes login-attempt rows older than a cutoff
type StaleAttemptDeleter interface {
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupManager periodically removes stale login-attempt rows. Rows whose
// lock already expired are reset lazily on the next login, so this exists
// only to keep the table from accumulating abandoned emails.
type CleanupManager struct {
	attempts StaleAttemptDeleter
	logger   *slog.Logger
	interval time.Duration
	maxAge   time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager. maxAge is how long after
// the last failed attempt a row is considered abandoned.
func NewCleanupManager(attempts StaleAttemptDeleter, logger *slog.Logger, interval, maxAge time.Duration) *CleanupManager {
	return &CleanupManager{
		attempts: attempts,
		logger:   logger,
		interval: interval,
		maxAge:   maxAge,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-cm.maxAge)
	rowsDeleted, err := cm.attempts.DeleteStale(cleanupCtx, cutoff)
	if err != nil {
		cm.logger.Error("failed to cleanup stale login attempts", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		cm.logger.Info("stale login attempt cleanup completed", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
