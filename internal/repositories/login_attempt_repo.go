package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kyuho-lee/asset-manager-sub000/internal/database"
	"github.com/kyuho-lee/asset-manager-sub000/internal/models"
)

// LoginAttemptRepository persists the per-email failure counters.
//
// Every mutation is a single SQL statement so that overlapping login
// attempts for the same email cannot interleave a read with a write:
// RecordFailure is an upsert whose increment and threshold check happen
// inside the database, never as separate read and write calls.
type LoginAttemptRepository struct {
	pool *pgxpool.Pool
}

func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{pool: db.Pool}
}

// Get returns the attempt record for an email, or (nil, nil) when the email
// has no failures on record.
func (r *LoginAttemptRepository) Get(ctx context.Context, email string) (*models.LoginAttempt, error) {
	query := `
		SELECT email, attempt_count, last_attempt_at, locked_until
		FROM login_attempts WHERE email = $1
	`

	var attempt models.LoginAttempt
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&attempt.Email, &attempt.AttemptCount, &attempt.LastAttemptAt, &attempt.LockedUntil,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &attempt, nil
}

// RecordFailure atomically increments the failure count for an email,
// creating the row on first failure. The count is capped at threshold, and
// locked_until is set in the same write the moment the count reaches it,
// so N concurrent failures yield exactly min(N, threshold) and at most one
// lock. Returns the post-increment state.
func (r *LoginAttemptRepository) RecordFailure(ctx context.Context, email string, threshold int, lockFor time.Duration) (*models.LoginAttempt, error) {
	now := time.Now()
	lockedUntil := now.Add(lockFor)

	query := `
		INSERT INTO login_attempts (email, attempt_count, last_attempt_at, locked_until)
		VALUES ($1, 1, $2, CASE WHEN 1 >= $3 THEN $4::timestamptz ELSE NULL END)
		ON CONFLICT (email) DO UPDATE SET
			attempt_count   = LEAST(login_attempts.attempt_count + 1, $3),
			last_attempt_at = $2,
			locked_until    = CASE
				WHEN login_attempts.attempt_count + 1 >= $3 AND login_attempts.locked_until IS NULL
					THEN $4::timestamptz
				ELSE login_attempts.locked_until
			END
		RETURNING email, attempt_count, last_attempt_at, locked_until
	`

	var attempt models.LoginAttempt
	err := r.pool.QueryRow(ctx, query, email, now, threshold, lockedUntil).Scan(
		&attempt.Email, &attempt.AttemptCount, &attempt.LastAttemptAt, &attempt.LockedUntil,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &attempt, nil
}

// ResetIfExpired clears an expired lock in a single conditional update.
// Returns true when a lock was actually cleared.
func (r *LoginAttemptRepository) ResetIfExpired(ctx context.Context, email string, now time.Time) (bool, error) {
	query := `
		UPDATE login_attempts
		SET attempt_count = 0, locked_until = NULL
		WHERE email = $1 AND locked_until IS NOT NULL AND locked_until <= $2
	`

	result, err := r.pool.Exec(ctx, query, email, now)
	if err != nil {
		return false, database.MapPostgresError(err)
	}

	return result.RowsAffected() > 0, nil
}

// Delete removes the record entirely, used on successful authentication.
// A later failure starts a fresh count at 1.
func (r *LoginAttemptRepository) Delete(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM login_attempts WHERE email = $1`, email)
	return database.MapPostgresError(err)
}

// DeleteStale purges rows for emails nobody has retried: expired locks and
// idle partial counts older than the cutoff. Lazy expiry on read only
// clears rows that see another attempt.
func (r *LoginAttemptRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM login_attempts
		WHERE (locked_until IS NOT NULL AND locked_until <= $1)
		   OR (locked_until IS NULL AND last_attempt_at <= $1)
	`

	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
