package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golistingsync_api/internal/listings/business/models"
	"golistingsync_api/internal/listings/business/syncerr"
)

const (
	deleteMergedPattern = `DELETE FROM listings\.cached_listings WHERE account_key = \$1 AND source_of_truth = \$2`
	upsertPattern       = `INSERT INTO listings\.cached_listings`
	monotonicPattern    = `last_synced_at = GREATEST\(listings\.cached_listings\.last_synced_at, EXCLUDED\.last_synced_at\)`
)

func newMockRepo(t *testing.T) (*CacheRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCacheRepository(db), mock
}

func mergedRecord(localID string, syncedAt *time.Time) models.CachedListingRecord {
	return models.CachedListingRecord{
		LocalID:       localID,
		AccountKey:    "seller-1",
		RemoteID:      "R1",
		Title:         "Vintage Card",
		Price:         19.99,
		Currency:      "USD",
		ListingFormat: models.FormatFixedPrice,
		Status:        models.StatusActive,
		Quantity:      1,
		LastSyncedAt:  syncedAt,
		SourceOfTruth: models.SourceMerged,
	}
}

func TestReplaceScopeDeletesOnlyMergedRows(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(deleteMergedPattern).
		WithArgs("seller-1", string(models.SourceMerged)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(upsertPattern).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceScope(context.Background(), "seller-1",
		[]models.CachedListingRecord{mergedRecord("D1", nil)})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet(),
		"the delete must filter on source_of_truth so local-only rows survive")
}

func TestReplaceScopeRollsBackOnWriteFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(deleteMergedPattern).
		WithArgs("seller-1", string(models.SourceMerged)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(upsertPattern).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(upsertPattern).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.ReplaceScope(context.Background(), "seller-1",
		[]models.CachedListingRecord{mergedRecord("D1", nil), mergedRecord("D2", nil)})

	require.Error(t, err)
	assert.ErrorIs(t, err, syncerr.ErrStorageFailure)
	assert.NoError(t, mock.ExpectationsWereMet(),
		"a mid-write failure must roll back, never commit a partial scope")
}

func TestReplaceScopeRollsBackOnDeleteFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(deleteMergedPattern).
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err := repo.ReplaceScope(context.Background(), "seller-1",
		[]models.CachedListingRecord{mergedRecord("D1", nil)})

	require.Error(t, err)
	assert.ErrorIs(t, err, syncerr.ErrStorageFailure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertGuardsLastSyncedAtMonotonicity(t *testing.T) {
	repo, mock := newMockRepo(t)
	syncedAt := time.Now().UTC()

	mock.ExpectExec(monotonicPattern).
		WithArgs("D1", "seller-1", "R1", "Vintage Card", 19.99, "USD",
			string(models.FormatFixedPrice), "", string(models.StatusActive),
			1, 0, 0, 0, 0, "", "", syncedAt, string(models.SourceMerged)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Upsert(context.Background(), mergedRecord("D1", &syncedAt))

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet(),
		"the upsert statement must take the newer of the stored and incoming sync times")
}

func TestUpsertBindsNullsForAbsentOptionals(t *testing.T) {
	repo, mock := newMockRepo(t)
	record := mergedRecord("D1", nil)
	record.RemoteID = ""

	mock.ExpectExec(upsertPattern).
		WithArgs("D1", "seller-1", nil, "Vintage Card", 19.99, "USD",
			string(models.FormatFixedPrice), "", string(models.StatusActive),
			1, 0, 0, 0, 0, "", "", nil, string(models.SourceMerged)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Upsert(context.Background(), record)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
