package reconcile

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golistingsync_api/internal/listings/business/models"
)

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func testDraft() *models.LocalDraft {
	return &models.LocalDraft{
		LocalID:        "D1",
		AccountKey:     "seller-1",
		RemoteID:       "R1",
		Title:          "Vintage Card",
		Price:          19.99,
		Currency:       "USD",
		ListingFormat:  models.FormatFixedPrice,
		DurationPolicy: "GTC",
		WorkflowState:  models.StatusDraft,
		Quantity:       1,
	}
}

func TestReconcileWithoutRemoteIsLocalOnly(t *testing.T) {
	r := NewReconciler(NewStatusMapper(nil))

	record := r.Reconcile("seller-1", testDraft(), nil, time.Now())

	assert.Equal(t, models.SourceLocalOnly, record.SourceOfTruth)
	assert.Equal(t, models.StatusDraft, record.Status, "status comes from the draft workflow state")
	assert.Equal(t, "Vintage Card", record.Title)
	assert.Nil(t, record.LastSyncedAt)
}

func TestReconcileLocalTitleWinsWhenRemoteOmitsIt(t *testing.T) {
	r := NewReconciler(NewStatusMapper(nil))
	remote := &models.RemoteListing{
		RemoteID: "R1",
		Status:   strPtr("Active"),
	}

	record := r.Reconcile("seller-1", testDraft(), remote, time.Now())

	assert.Equal(t, "Vintage Card", record.Title)
	assert.Equal(t, models.SourceMerged, record.SourceOfTruth)
}

func TestReconcileRemoteStatusOverridesLocal(t *testing.T) {
	r := NewReconciler(NewStatusMapper(nil))
	remote := &models.RemoteListing{
		RemoteID:   "R1",
		Status:     strPtr("Active"),
		WatchCount: intPtr(3),
	}

	record := r.Reconcile("seller-1", testDraft(), remote, time.Now())

	assert.Equal(t, models.StatusActive, record.Status)
	assert.Equal(t, 3, record.WatchCount)
	assert.Equal(t, "R1", record.RemoteID)
	assert.Equal(t, "D1", record.LocalID)
}

func TestReconcileEmptyRemoteTitleDoesNotClobberLocal(t *testing.T) {
	r := NewReconciler(NewStatusMapper(nil))
	remote := &models.RemoteListing{
		RemoteID: "R1",
		Title:    strPtr(""),
		Status:   strPtr("Active"),
	}

	record := r.Reconcile("seller-1", testDraft(), remote, time.Now())

	assert.Equal(t, "Vintage Card", record.Title)
}

func TestReconcileVolatileFieldsFallBackToLocalWhenAbsent(t *testing.T) {
	r := NewReconciler(NewStatusMapper(nil))
	remote := &models.RemoteListing{RemoteID: "R1"}

	record := r.Reconcile("seller-1", testDraft(), remote, time.Now())

	assert.Equal(t, models.StatusDraft, record.Status, "absent remote status falls back to workflow state")
	assert.Equal(t, 19.99, record.Price)
	assert.Equal(t, "USD", record.Currency)
}

func TestReconcileAuctionPriceIsRemote(t *testing.T) {
	r := NewReconciler(NewStatusMapper(nil))
	draft := testDraft()
	draft.ListingFormat = models.FormatAuction
	draft.Price = 0.99
	remote := &models.RemoteListing{
		RemoteID:     "R1",
		CurrentPrice: floatPtr(42.50),
		Status:       strPtr("Active"),
		BidCount:     intPtr(7),
	}

	record := r.Reconcile("seller-1", draft, remote, time.Now())

	assert.Equal(t, 42.50, record.Price, "an auction's current price belongs to the remote side")
	assert.Equal(t, 7, record.BidCount)
}

func TestReconcileRemoteOnlyListingSynthesizesLocalID(t *testing.T) {
	r := NewReconciler(NewStatusMapper(nil))
	remote := &models.RemoteListing{
		RemoteID:     "R9",
		Title:        strPtr("Remote Item"),
		Status:       strPtr("Active"),
		CurrentPrice: floatPtr(5),
		Quantity:     intPtr(2),
	}

	record := r.Reconcile("seller-1", nil, remote, time.Now())

	assert.Equal(t, models.SynthesizedLocalID("R9"), record.LocalID)
	assert.Equal(t, models.SourceMerged, record.SourceOfTruth)
	assert.Equal(t, "Remote Item", record.Title)
	assert.Equal(t, 2, record.Quantity)
	assert.Equal(t, "seller-1", record.AccountKey)
}

func TestReconcileUnknownProviderStatusMapsToError(t *testing.T) {
	r := NewReconciler(NewStatusMapper(nil))
	remote := &models.RemoteListing{
		RemoteID: "R1",
		Status:   strPtr("somethingNew"),
	}

	record := r.Reconcile("seller-1", testDraft(), remote, time.Now())

	assert.Equal(t, models.StatusError, record.Status)
}

func TestReconcileIsIdempotent(t *testing.T) {
	r := NewReconciler(NewStatusMapper(nil))
	syncedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	remote := &models.RemoteListing{
		RemoteID:   "R1",
		Status:     strPtr("Active"),
		WatchCount: intPtr(3),
		ViewCount:  intPtr(120),
	}

	first := r.Reconcile("seller-1", testDraft(), remote, syncedAt)
	second := r.Reconcile("seller-1", testDraft(), remote, syncedAt)

	require.True(t, reflect.DeepEqual(first, second), "identical inputs must produce identical output")
}

func TestStatusMapperCustomTable(t *testing.T) {
	mapper := NewStatusMapper(map[string]string{
		"ON_SALE": string(models.StatusActive),
		"paused":  string(models.StatusScheduled),
	})

	assert.Equal(t, models.StatusActive, mapper.Map("on_sale"))
	assert.Equal(t, models.StatusScheduled, mapper.Map(" Paused "))
	assert.Equal(t, models.StatusError, mapper.Map("ended"), "custom table replaces the default one")
}

func TestStatusMapperDefaults(t *testing.T) {
	mapper := NewStatusMapper(nil)

	assert.Equal(t, models.StatusActive, mapper.Map("Active"))
	assert.Equal(t, models.StatusSold, mapper.Map("completed"))
	assert.Equal(t, models.StatusEnded, mapper.Map("unsold"))
}
