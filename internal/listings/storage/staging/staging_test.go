package staging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golistingsync_api/internal/listings/business/models"
)

func stagedRecord(localID string) models.CachedListingRecord {
	return models.CachedListingRecord{
		LocalID:       localID,
		AccountKey:    "seller-1",
		Title:         "Staged Item",
		Status:        models.StatusActive,
		SourceOfTruth: models.SourceMerged,
	}
}

func TestMemoryStorePutListTake(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sess-1", stagedRecord("D1"), time.Minute))
	require.NoError(t, store.Put(ctx, "sess-1", stagedRecord("D2"), time.Minute))

	records, err := store.List(ctx, "sess-1")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	taken, err := store.Take(ctx, "sess-1", "D1")
	require.NoError(t, err)
	require.NotNil(t, taken)
	assert.Equal(t, "D1", taken.LocalID)

	// Taking removes the entry.
	taken, err = store.Take(ctx, "sess-1", "D1")
	require.NoError(t, err)
	assert.Nil(t, taken)
}

func TestMemoryStoreSessionsAreIsolated(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sess-1", stagedRecord("D1"), time.Minute))

	records, err := store.List(ctx, "sess-2")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, "sess-1", stagedRecord("D1"), time.Minute))

	now = now.Add(2 * time.Minute)

	taken, err := store.Take(ctx, "sess-1", "D1")
	require.NoError(t, err)
	assert.Nil(t, taken, "expired entries must not be confirmable")

	records, err := store.List(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMemoryStoreDiscard(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sess-1", stagedRecord("D1"), time.Minute))
	require.NoError(t, store.Discard(ctx, "sess-1"))

	records, err := store.List(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, records)
}
