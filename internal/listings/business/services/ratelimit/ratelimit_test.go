package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golistingsync_api/internal/listings/business/models"
	"golistingsync_api/internal/listings/business/syncerr"
)

type fakeAttemptReader struct {
	latest *models.SyncAttempt
	err    error
}

func (f *fakeAttemptReader) LatestCompleted(_ context.Context, _, _ string) (*models.SyncAttempt, error) {
	return f.latest, f.err
}

func completedAttempt(completedAt time.Time) *models.SyncAttempt {
	return &models.SyncAttempt{
		AttemptID:   "a1",
		AccountKey:  "seller-1",
		ScopeKey:    models.BulkScopeKey,
		StartedAt:   completedAt.Add(-time.Minute),
		CompletedAt: &completedAt,
		Outcome:     models.OutcomeCompleted,
	}
}

func TestMaySyncAllowsFirstSync(t *testing.T) {
	limiter := NewLimiter(&fakeAttemptReader{})

	allowed, retryAfter, err := limiter.MaySync(context.Background(), "seller-1", models.BulkScopeKey, 15*time.Minute)

	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Zero(t, retryAfter)
}

func TestMaySyncDeniesWithinWindow(t *testing.T) {
	now := time.Now()
	limiter := NewLimiter(&fakeAttemptReader{latest: completedAttempt(now.Add(-5 * time.Minute))})
	limiter.now = func() time.Time { return now }

	allowed, retryAfter, err := limiter.MaySync(context.Background(), "seller-1", models.BulkScopeKey, 15*time.Minute)

	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 10*time.Minute, retryAfter)
}

func TestMaySyncAllowsAfterWindow(t *testing.T) {
	now := time.Now()
	limiter := NewLimiter(&fakeAttemptReader{latest: completedAttempt(now.Add(-16 * time.Minute))})
	limiter.now = func() time.Time { return now }

	allowed, retryAfter, err := limiter.MaySync(context.Background(), "seller-1", models.BulkScopeKey, 15*time.Minute)

	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Zero(t, retryAfter)
}

func TestMaySyncFailsClosedOnUnreadableState(t *testing.T) {
	limiter := NewLimiter(&fakeAttemptReader{err: errors.New("connection refused")})

	allowed, _, err := limiter.MaySync(context.Background(), "seller-1", models.BulkScopeKey, 15*time.Minute)

	require.Error(t, err)
	assert.ErrorIs(t, err, syncerr.ErrStorageFailure)
	assert.False(t, allowed, "unreadable rate-limit state must deny, not allow")
}

func TestMaySyncUsesExactBoundary(t *testing.T) {
	now := time.Now()
	limiter := NewLimiter(&fakeAttemptReader{latest: completedAttempt(now.Add(-15 * time.Minute))})
	limiter.now = func() time.Time { return now }

	allowed, _, err := limiter.MaySync(context.Background(), "seller-1", models.BulkScopeKey, 15*time.Minute)

	require.NoError(t, err)
	assert.True(t, allowed, "elapsed == minInterval should admit")
}
