package models

import "time"

// LoginAttempt is the per-email failure counter backing the lockout state
// machine. It is keyed by normalized email rather than user ID so that
// probing of unregistered emails is throttled the same way; the row is
// created lazily on the first failure and deleted outright on a successful
// login, keeping the table bounded to currently-failing emails.
//
// LockedUntil is set only when AttemptCount has reached the lockout
// threshold.
type LoginAttempt struct {
	Email         string     `db:"email"`
	AttemptCount  int        `db:"attempt_count"`
	LastAttemptAt time.Time  `db:"last_attempt_at"`
	LockedUntil   *time.Time `db:"locked_until"`
}
