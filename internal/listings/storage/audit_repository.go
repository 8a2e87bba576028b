package storage

import (
	"context"
	"database/sql"
	"fmt"

	"golistingsync_api/internal/listings/business/models"
	"golistingsync_api/internal/listings/business/syncerr"
)

// AuditRepository is the append-only record of synchronization attempts. The
// rate limiter reads the latest completed attempt from here, so a write
// failure makes the limiter fail closed.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Begin(ctx context.Context, attempt *models.SyncAttempt) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO listings.sync_attempts
			(attempt_id, account_key, scope_key, started_at, outcome)
		VALUES ($1, $2, $3, $4, $5)`,
		attempt.AttemptID, attempt.AccountKey, attempt.ScopeKey,
		attempt.StartedAt, string(attempt.Outcome))
	if err != nil {
		return fmt.Errorf("%w: recording attempt start: %v", syncerr.ErrStorageFailure, err)
	}
	return nil
}

// Finish freezes an attempt. Only in-progress rows are updatable; a finished
// attempt never mutates again.
func (r *AuditRepository) Finish(ctx context.Context, attempt *models.SyncAttempt) error {
	var failureReason sql.NullString
	if attempt.FailureReason != "" {
		failureReason = sql.NullString{String: attempt.FailureReason, Valid: true}
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE listings.sync_attempts
		SET completed_at = $1, items_synced = $2, remote_calls_made = $3,
			outcome = $4, failure_reason = $5
		WHERE attempt_id = $6 AND outcome = $7`,
		attempt.CompletedAt, attempt.ItemsSynced, attempt.RemoteCallsMade,
		string(attempt.Outcome), failureReason,
		attempt.AttemptID, string(models.OutcomeInProgress))
	if err != nil {
		return fmt.Errorf("%w: recording attempt completion: %v", syncerr.ErrStorageFailure, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: attempt %s is not in progress", syncerr.ErrStorageFailure, attempt.AttemptID)
	}
	return nil
}

// LatestCompleted returns the most recent completed attempt for the scope,
// or nil when the scope has never completed a sync.
func (r *AuditRepository) LatestCompleted(ctx context.Context, accountKey, scopeKey string) (*models.SyncAttempt, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+syncAttemptColumns+`
		FROM listings.sync_attempts
		WHERE account_key = $1 AND scope_key = $2 AND outcome = $3
		ORDER BY completed_at DESC
		LIMIT 1`,
		accountKey, scopeKey, string(models.OutcomeCompleted))
	return scanAttempt(row)
}

// Latest returns the most recent attempt of any outcome for display
// ("last synced N minutes ago").
func (r *AuditRepository) Latest(ctx context.Context, accountKey string) (*models.SyncAttempt, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+syncAttemptColumns+`
		FROM listings.sync_attempts
		WHERE account_key = $1
		ORDER BY started_at DESC
		LIMIT 1`,
		accountKey)
	return scanAttempt(row)
}

const syncAttemptColumns = `
	attempt_id, account_key, scope_key, started_at, completed_at,
	items_synced, remote_calls_made, outcome, failure_reason`

func scanAttempt(row *sql.Row) (*models.SyncAttempt, error) {
	var attempt models.SyncAttempt
	var completedAt sql.NullTime
	var failureReason sql.NullString
	var outcome string

	err := row.Scan(&attempt.AttemptID, &attempt.AccountKey, &attempt.ScopeKey,
		&attempt.StartedAt, &completedAt, &attempt.ItemsSynced,
		&attempt.RemoteCallsMade, &outcome, &failureReason)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading sync attempt: %v", syncerr.ErrStorageFailure, err)
	}

	attempt.Outcome = models.SyncOutcome(outcome)
	if completedAt.Valid {
		t := completedAt.Time
		attempt.CompletedAt = &t
	}
	if failureReason.Valid {
		attempt.FailureReason = failureReason.String
	}
	return &attempt, nil
}
