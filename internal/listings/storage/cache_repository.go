package storage

import (
	"context"
	"database/sql"
	"fmt"

	"golistingsync_api/internal/listings/business/models"
	"golistingsync_api/internal/listings/business/syncerr"
)

// CacheRepository persists reconciled listing records. All mutation goes
// through ReplaceScope/Upsert; both run inside a transaction so readers never
// observe a half-written scope.
type CacheRepository struct {
	db *sql.DB
}

func NewCacheRepository(db *sql.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

const cachedListingColumns = `
	local_id, account_key, remote_id, title, price, currency, listing_format,
	duration_policy, status, quantity, quantity_sold, view_count, watch_count,
	bid_count, time_remaining, remote_url, last_synced_at, source_of_truth`

const upsertCachedListing = `
	INSERT INTO listings.cached_listings (` + cachedListingColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	ON CONFLICT (local_id) DO UPDATE
	SET account_key = EXCLUDED.account_key,
		remote_id = EXCLUDED.remote_id,
		title = EXCLUDED.title,
		price = EXCLUDED.price,
		currency = EXCLUDED.currency,
		listing_format = EXCLUDED.listing_format,
		duration_policy = EXCLUDED.duration_policy,
		status = EXCLUDED.status,
		quantity = EXCLUDED.quantity,
		quantity_sold = EXCLUDED.quantity_sold,
		view_count = EXCLUDED.view_count,
		watch_count = EXCLUDED.watch_count,
		bid_count = EXCLUDED.bid_count,
		time_remaining = EXCLUDED.time_remaining,
		remote_url = EXCLUDED.remote_url,
		last_synced_at = GREATEST(listings.cached_listings.last_synced_at, EXCLUDED.last_synced_at),
		source_of_truth = EXCLUDED.source_of_truth;`

// ReplaceScope installs the merged record set for an account atomically.
// Rows that exist only as local drafts (source_of_truth = local_only) are
// never touched: the replace applies to the merged set only.
func (r *CacheRepository) ReplaceScope(ctx context.Context, accountKey string, records []models.CachedListingRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin replace scope: %v", syncerr.ErrStorageFailure, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM listings.cached_listings WHERE account_key = $1 AND source_of_truth = $2`,
		accountKey, string(models.SourceMerged))
	if err != nil {
		return fmt.Errorf("%w: clearing merged records: %v", syncerr.ErrStorageFailure, err)
	}

	for _, record := range records {
		if _, err := tx.ExecContext(ctx, upsertCachedListing, upsertArgs(record)...); err != nil {
			return fmt.Errorf("%w: inserting record %s: %v", syncerr.ErrStorageFailure, record.LocalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing replace scope: %v", syncerr.ErrStorageFailure, err)
	}
	return nil
}

// Upsert writes one record, used by single-item refreshes and staging
// confirmations.
func (r *CacheRepository) Upsert(ctx context.Context, record models.CachedListingRecord) error {
	if _, err := r.db.ExecContext(ctx, upsertCachedListing, upsertArgs(record)...); err != nil {
		return fmt.Errorf("%w: upserting record %s: %v", syncerr.ErrStorageFailure, record.LocalID, err)
	}
	return nil
}

func upsertArgs(record models.CachedListingRecord) []interface{} {
	var remoteID sql.NullString
	if record.RemoteID != "" {
		remoteID = sql.NullString{String: record.RemoteID, Valid: true}
	}
	var lastSynced sql.NullTime
	if record.LastSyncedAt != nil {
		lastSynced = sql.NullTime{Time: *record.LastSyncedAt, Valid: true}
	}
	return []interface{}{
		record.LocalID, record.AccountKey, remoteID, record.Title, record.Price,
		record.Currency, string(record.ListingFormat), record.DurationPolicy,
		string(record.Status), record.Quantity, record.QuantitySold,
		record.ViewCount, record.WatchCount, record.BidCount,
		record.TimeRemaining, record.RemoteURL, lastSynced,
		string(record.SourceOfTruth),
	}
}

// ListFilter narrows List results; zero values mean no filtering.
type ListFilter struct {
	Status        models.ListingStatus
	SourceOfTruth models.SourceOfTruth
}

func (r *CacheRepository) Get(ctx context.Context, localID string) (*models.CachedListingRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cachedListingColumns+` FROM listings.cached_listings WHERE local_id = $1`, localID)
	record, err := scanCachedListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading record %s: %v", syncerr.ErrStorageFailure, localID, err)
	}
	return record, nil
}

func (r *CacheRepository) List(ctx context.Context, accountKey string, filter ListFilter) ([]models.CachedListingRecord, error) {
	query := `SELECT ` + cachedListingColumns + ` FROM listings.cached_listings WHERE account_key = $1`
	args := []interface{}{accountKey}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.SourceOfTruth != "" {
		args = append(args, string(filter.SourceOfTruth))
		query += fmt.Sprintf(" AND source_of_truth = $%d", len(args))
	}
	query += ` ORDER BY local_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing records: %v", syncerr.ErrStorageFailure, err)
	}
	defer rows.Close()

	var records []models.CachedListingRecord
	for rows.Next() {
		record, err := scanCachedListing(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning record: %v", syncerr.ErrStorageFailure, err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading records: %v", syncerr.ErrStorageFailure, err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCachedListing(row rowScanner) (*models.CachedListingRecord, error) {
	var record models.CachedListingRecord
	var remoteID sql.NullString
	var lastSynced sql.NullTime
	var format, status, source string

	err := row.Scan(&record.LocalID, &record.AccountKey, &remoteID, &record.Title,
		&record.Price, &record.Currency, &format, &record.DurationPolicy, &status,
		&record.Quantity, &record.QuantitySold, &record.ViewCount, &record.WatchCount,
		&record.BidCount, &record.TimeRemaining, &record.RemoteURL, &lastSynced, &source)
	if err != nil {
		return nil, err
	}

	record.ListingFormat = models.ListingFormat(format)
	record.Status = models.ListingStatus(status)
	record.SourceOfTruth = models.SourceOfTruth(source)
	if remoteID.Valid {
		record.RemoteID = remoteID.String
	}
	if lastSynced.Valid {
		t := lastSynced.Time
		record.LastSyncedAt = &t
	}
	return &record, nil
}
