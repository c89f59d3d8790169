package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kyuho-lee/asset-manager-sub000/internal/models"
)

// LoginAttemptRepository defines the storage operations for lockout state.
// RecordFailure must be atomic at the row level: increment, cap, and
// threshold check happen in one statement.
type LoginAttemptRepository interface {
	Get(ctx context.Context, email string) (*models.LoginAttempt, error)
	RecordFailure(ctx context.Context, email string, threshold int, lockFor time.Duration) (*models.LoginAttempt, error)
	ResetIfExpired(ctx context.Context, email string, now time.Time) (bool, error)
	Delete(ctx context.Context, email string) error
}

// LockoutConfig holds the lockout policy
type LockoutConfig struct {
	Threshold int           // failures before lock (default 5)
	Duration  time.Duration // lock length (default 30m)
}

// DefaultLockoutConfig returns the standard policy
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		Threshold: 5,
		Duration:  30 * time.Minute,
	}
}

// LockoutStatus reports the outcome of a lockout check
type LockoutStatus struct {
	Locked           bool
	RemainingMinutes int
}

// LockoutService tracks failed logins per normalized email and locks the
// email once the failure count reaches the threshold. The per-email state
// lives in storage:
//
//	CLEAN:   no row, or attempt_count = 0
//	FAILING: 1 <= attempt_count < threshold, no locked_until
//	LOCKED:  attempt_count >= threshold, locked_until set
//
// Expired locks are reset lazily on the next check, so rows for emails
// nobody retries stay nominally locked until the cleanup job gets them.
type LockoutService struct {
	repo   LoginAttemptRepository
	config LockoutConfig
	logger *slog.Logger
}

// NewLockoutService creates a new LockoutService
func NewLockoutService(repo LoginAttemptRepository, config LockoutConfig, logger *slog.Logger) *LockoutService {
	if config.Threshold <= 0 {
		config = DefaultLockoutConfig()
	}
	return &LockoutService{
		repo:   repo,
		config: config,
		logger: logger,
	}
}

// Check reports whether an email is currently locked, clearing any lock
// whose window has passed.
func (s *LockoutService) Check(ctx context.Context, email string) (LockoutStatus, error) {
	attempt, err := s.repo.Get(ctx, email)
	if err != nil {
		return LockoutStatus{}, fmt.Errorf("failed to read lockout state: %w", err)
	}

	if attempt == nil || attempt.LockedUntil == nil {
		return LockoutStatus{}, nil
	}

	now := time.Now()
	if attempt.LockedUntil.After(now) {
		return LockoutStatus{
			Locked:           true,
			RemainingMinutes: remainingMinutes(*attempt.LockedUntil, now),
		}, nil
	}

	// Lock window has passed: reset the counter before reporting unlocked.
	if _, err := s.repo.ResetIfExpired(ctx, email, now); err != nil {
		return LockoutStatus{}, fmt.Errorf("failed to clear expired lockout: %w", err)
	}

	return LockoutStatus{}, nil
}

// RecordFailure counts a failed login. Returns the attempts left before
// lockout and, when this failure tripped the lock, its remaining minutes.
func (s *LockoutService) RecordFailure(ctx context.Context, email string) (remaining int, locked *LockoutStatus, err error) {
	attempt, err := s.repo.RecordFailure(ctx, email, s.config.Threshold, s.config.Duration)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to record login failure: %w", err)
	}

	if attempt.LockedUntil != nil {
		s.logger.Warn("login lockout triggered",
			slog.Int("attempt_count", attempt.AttemptCount),
			slog.Time("locked_until", *attempt.LockedUntil))
		return 0, &LockoutStatus{
			Locked:           true,
			RemainingMinutes: remainingMinutes(*attempt.LockedUntil, time.Now()),
		}, nil
	}

	return s.config.Threshold - attempt.AttemptCount, nil, nil
}

// RecordSuccess deletes the attempt record entirely. A later failure starts
// a fresh count at 1, never resuming a prior partial count.
func (s *LockoutService) RecordSuccess(ctx context.Context, email string) error {
	if err := s.repo.Delete(ctx, email); err != nil {
		return fmt.Errorf("failed to clear login attempts: %w", err)
	}
	return nil
}

// remainingMinutes rounds the remaining lock time up to whole minutes.
func remainingMinutes(until, now time.Time) int {
	secs := int(until.Sub(now).Seconds())
	if secs <= 0 {
		return 0
	}
	return (secs + 59) / 60
}
