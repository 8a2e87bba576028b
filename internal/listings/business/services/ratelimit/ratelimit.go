package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golistingsync_api/internal/listings/business/models"
	"golistingsync_api/internal/listings/business/syncerr"
)

// AttemptReader is the slice of the audit log the limiter needs.
type AttemptReader interface {
	LatestCompleted(ctx context.Context, accountKey, scopeKey string) (*models.SyncAttempt, error)
}

// Limiter decides whether a scope may start a new remote sync. It is a pure
// read over the audit log; recording attempts is the orchestrator's job.
type Limiter struct {
	attempts AttemptReader
	now      func() time.Time
}

func NewLimiter(attempts AttemptReader) *Limiter {
	return &Limiter{attempts: attempts, now: time.Now}
}

// MaySync allows a sync when the scope has never completed one, or when the
// minimum interval has elapsed since the last completion. When denied, the
// returned duration says how long the caller has to wait.
//
// An unreadable audit log denies the sync: unknown rate-limit state must
// never be treated as "no prior sync".
func (l *Limiter) MaySync(ctx context.Context, accountKey, scopeKey string, minInterval time.Duration) (bool, time.Duration, error) {
	latest, err := l.attempts.LatestCompleted(ctx, accountKey, scopeKey)
	if err != nil {
		return false, 0, fmt.Errorf("%w: reading rate-limit state: %v", syncerr.ErrStorageFailure, err)
	}
	if latest == nil || latest.CompletedAt == nil {
		return true, 0, nil
	}

	elapsed := l.now().Sub(*latest.CompletedAt)
	if elapsed >= minInterval {
		return true, 0, nil
	}
	return false, minInterval - elapsed, nil
}
