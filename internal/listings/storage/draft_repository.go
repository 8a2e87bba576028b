package storage

import (
	"context"
	"database/sql"
	"fmt"

	"golistingsync_api/internal/listings/business/models"
	"golistingsync_api/internal/listings/business/syncerr"
)

// DraftRepository gives the engine read-only access to local drafts. Draft
// management writes this table; the engine never does.
type DraftRepository struct {
	db *sql.DB
}

func NewDraftRepository(db *sql.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

const localDraftColumns = `
	local_id, account_key, remote_id, title, price, currency,
	listing_format, duration_policy, workflow_state, quantity`

func (r *DraftRepository) DraftsByAccount(ctx context.Context, accountKey string) ([]models.LocalDraft, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+localDraftColumns+` FROM listings.local_drafts WHERE account_key = $1`,
		accountKey)
	if err != nil {
		return nil, fmt.Errorf("%w: listing drafts: %v", syncerr.ErrStorageFailure, err)
	}
	defer rows.Close()

	var drafts []models.LocalDraft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning draft: %v", syncerr.ErrStorageFailure, err)
		}
		drafts = append(drafts, *draft)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading drafts: %v", syncerr.ErrStorageFailure, err)
	}
	return drafts, nil
}

// DraftByRemoteID finds the draft previously submitted under the given
// remote id, or nil when the listing was created outside the local system.
func (r *DraftRepository) DraftByRemoteID(ctx context.Context, accountKey, remoteID string) (*models.LocalDraft, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+localDraftColumns+` FROM listings.local_drafts
		 WHERE account_key = $1 AND remote_id = $2`,
		accountKey, remoteID)
	draft, err := scanDraft(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading draft for remote id %s: %v", syncerr.ErrStorageFailure, remoteID, err)
	}
	return draft, nil
}

func scanDraft(row rowScanner) (*models.LocalDraft, error) {
	var draft models.LocalDraft
	var remoteID sql.NullString
	var format, state string

	err := row.Scan(&draft.LocalID, &draft.AccountKey, &remoteID, &draft.Title,
		&draft.Price, &draft.Currency, &format, &draft.DurationPolicy,
		&state, &draft.Quantity)
	if err != nil {
		return nil, err
	}

	draft.ListingFormat = models.ListingFormat(format)
	draft.WorkflowState = models.ListingStatus(state)
	if remoteID.Valid {
		draft.RemoteID = remoteID.String
	}
	return &draft, nil
}
