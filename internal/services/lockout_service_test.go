package services

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEmail = "target@example.com"

func newTestLockoutService(store *memAttemptStore) *LockoutService {
	return NewLockoutService(store, DefaultLockoutConfig(), slog.Default())
}

func TestLockoutService_CleanEmailNotLocked(t *testing.T) {
	svc := newTestLockoutService(newMemAttemptStore())

	status, err := svc.Check(context.Background(), testEmail)
	require.NoError(t, err)
	assert.False(t, status.Locked)
}

func TestLockoutService_FourFailuresStillLoggable(t *testing.T) {
	store := newMemAttemptStore()
	svc := newTestLockoutService(store)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		remaining, locked, err := svc.RecordFailure(ctx, testEmail)
		require.NoError(t, err)
		assert.Nil(t, locked, "failure %d should not lock", i)
		assert.Equal(t, 5-i, remaining)
	}

	status, err := svc.Check(ctx, testEmail)
	require.NoError(t, err)
	assert.False(t, status.Locked)
}

func TestLockoutService_FifthFailureLocks(t *testing.T) {
	store := newMemAttemptStore()
	svc := newTestLockoutService(store)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _, err := svc.RecordFailure(ctx, testEmail)
		require.NoError(t, err)
	}

	_, locked, err := svc.RecordFailure(ctx, testEmail)
	require.NoError(t, err)
	require.NotNil(t, locked, "fifth failure should lock")
	assert.True(t, locked.Locked)
	assert.Equal(t, 30, locked.RemainingMinutes)

	// The sixth attempt is rejected before any credential check
	status, err := svc.Check(ctx, testEmail)
	require.NoError(t, err)
	assert.True(t, status.Locked)
	assert.GreaterOrEqual(t, status.RemainingMinutes, 29)
	assert.LessOrEqual(t, status.RemainingMinutes, 30)
}

func TestLockoutService_LazyExpiry(t *testing.T) {
	store := newMemAttemptStore()
	svc := newTestLockoutService(store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, err := svc.RecordFailure(ctx, testEmail)
		require.NoError(t, err)
	}

	// Rewind the lock past its window; the next check must clear it
	store.backdateLock(testEmail, time.Now().Add(-time.Second))

	status, err := svc.Check(ctx, testEmail)
	require.NoError(t, err)
	assert.False(t, status.Locked)

	// The counter was reset, so a fresh failure starts over at 1
	remaining, locked, err := svc.RecordFailure(ctx, testEmail)
	require.NoError(t, err)
	assert.Nil(t, locked)
	assert.Equal(t, 4, remaining)
}

func TestLockoutService_SuccessDeletesRecord(t *testing.T) {
	store := newMemAttemptStore()
	svc := newTestLockoutService(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := svc.RecordFailure(ctx, testEmail)
		require.NoError(t, err)
	}
	require.True(t, store.has(testEmail))

	require.NoError(t, svc.RecordSuccess(ctx, testEmail))
	assert.False(t, store.has(testEmail), "record should be deleted, not zeroed")

	// A subsequent failure starts a fresh count at 1
	remaining, locked, err := svc.RecordFailure(ctx, testEmail)
	require.NoError(t, err)
	assert.Nil(t, locked)
	assert.Equal(t, 4, remaining)
}

func TestLockoutService_ConcurrentFailures(t *testing.T) {
	store := newMemAttemptStore()
	svc := newTestLockoutService(store)
	ctx := context.Background()

	const n = 20

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.RecordFailure(ctx, testEmail)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := store.Get(ctx, testEmail)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 5, rec.AttemptCount, "count must cap at the threshold with no lost increments")
	require.NotNil(t, rec.LockedUntil, "lock must be set")
}

func TestLockoutService_RemainingMinutesRoundsUp(t *testing.T) {
	now := time.Now()

	assert.Equal(t, 30, remainingMinutes(now.Add(30*time.Minute), now))
	assert.Equal(t, 30, remainingMinutes(now.Add(29*time.Minute+30*time.Second), now))
	assert.Equal(t, 1, remainingMinutes(now.Add(10*time.Second), now))
	assert.Equal(t, 0, remainingMinutes(now.Add(-time.Second), now))
}

func TestLockoutService_CustomThreshold(t *testing.T) {
	store := newMemAttemptStore()
	svc := NewLockoutService(store, LockoutConfig{Threshold: 2, Duration: 10 * time.Minute}, slog.Default())
	ctx := context.Background()

	_, locked, err := svc.RecordFailure(ctx, testEmail)
	require.NoError(t, err)
	assert.Nil(t, locked)

	_, locked, err = svc.RecordFailure(ctx, testEmail)
	require.NoError(t, err)
	require.NotNil(t, locked)
	assert.Equal(t, 10, locked.RemainingMinutes)
}
