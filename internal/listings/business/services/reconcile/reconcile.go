package reconcile

import (
	"strings"
	"time"

	"golistingsync_api/internal/listings/business/models"
)

// Reconciler combines a local draft and an optional remote listing into one
// cached record. It is deterministic and side-effect free: identical inputs
// always produce identical output.
//
// Precedence: without a remote record everything comes from the draft and
// the record stays local-only. With a remote record, volatile fields (status,
// auction price, sold/watch/view/bid counts, time remaining, url) take the
// remote value whenever the provider reported it; descriptive fields (title,
// format, duration policy) keep the seller's authored value unless the draft
// left them empty.
type Reconciler struct {
	statuses *StatusMapper
}

func NewReconciler(statuses *StatusMapper) *Reconciler {
	return &Reconciler{statuses: statuses}
}

func (r *Reconciler) Reconcile(accountKey string, local *models.LocalDraft, remote *models.RemoteListing, syncedAt time.Time) models.CachedListingRecord {
	if remote == nil {
		return r.localOnly(local)
	}
	return r.merged(accountKey, local, remote, syncedAt)
}

func (r *Reconciler) localOnly(local *models.LocalDraft) models.CachedListingRecord {
	return models.CachedListingRecord{
		LocalID:        local.LocalID,
		AccountKey:     local.AccountKey,
		RemoteID:       local.RemoteID,
		Title:          local.Title,
		Price:          local.Price,
		Currency:       local.Currency,
		ListingFormat:  local.ListingFormat,
		DurationPolicy: local.DurationPolicy,
		Status:         local.WorkflowState,
		Quantity:       local.Quantity,
		SourceOfTruth:  models.SourceLocalOnly,
	}
}

func (r *Reconciler) merged(accountKey string, local *models.LocalDraft, remote *models.RemoteListing, syncedAt time.Time) models.CachedListingRecord {
	record := models.CachedListingRecord{
		AccountKey:    accountKey,
		RemoteID:      remote.RemoteID,
		SourceOfTruth: models.SourceMerged,
	}
	syncTime := syncedAt
	record.LastSyncedAt = &syncTime

	if local != nil {
		record.LocalID = local.LocalID
		record.Quantity = local.Quantity
	} else {
		// Listing created outside the local system; give it a stable
		// synthesized id so repeated refreshes hit the same row.
		record.LocalID = models.SynthesizedLocalID(remote.RemoteID)
	}
	if local == nil && remote.Quantity != nil {
		record.Quantity = *remote.Quantity
	}

	record.Title = preferLocalString(localTitle(local), remote.Title)
	record.DurationPolicy = preferLocalString(localDuration(local), remote.Duration)
	record.Currency = preferLocalString(localCurrency(local), remote.Currency)
	record.ListingFormat = resolveFormat(local, remote)
	record.Price = resolvePrice(local, remote, record.ListingFormat)
	record.Status = r.resolveStatus(local, remote)

	if remote.QuantitySold != nil {
		record.QuantitySold = *remote.QuantitySold
	}
	if remote.WatchCount != nil {
		record.WatchCount = *remote.WatchCount
	}
	if remote.ViewCount != nil {
		record.ViewCount = *remote.ViewCount
	}
	if remote.BidCount != nil {
		record.BidCount = *remote.BidCount
	}
	if remote.TimeRemaining != nil {
		record.TimeRemaining = *remote.TimeRemaining
	}
	if remote.RemoteURL != nil {
		record.RemoteURL = *remote.RemoteURL
	}
	return record
}

// resolveStatus takes the provider status whenever it is present; the local
// workflow state is only a fallback for a fetch that omitted the field.
func (r *Reconciler) resolveStatus(local *models.LocalDraft, remote *models.RemoteListing) models.ListingStatus {
	if remote.Status != nil {
		return r.statuses.Map(*remote.Status)
	}
	if local != nil {
		return local.WorkflowState
	}
	return models.StatusError
}

// resolvePrice: an auction's current price is volatile and belongs to the
// remote side; a fixed price is seller intent and stays local unless the
// draft never set one.
func resolvePrice(local *models.LocalDraft, remote *models.RemoteListing, format models.ListingFormat) float64 {
	if format == models.FormatAuction && remote.CurrentPrice != nil {
		return *remote.CurrentPrice
	}
	if local != nil && local.Price > 0 {
		return local.Price
	}
	if remote.CurrentPrice != nil {
		return *remote.CurrentPrice
	}
	return 0
}

func resolveFormat(local *models.LocalDraft, remote *models.RemoteListing) models.ListingFormat {
	if local != nil && local.ListingFormat != "" {
		return local.ListingFormat
	}
	if remote.ListingFormat != nil {
		switch strings.ToLower(*remote.ListingFormat) {
		case "auction", "chinese":
			return models.FormatAuction
		default:
			return models.FormatFixedPrice
		}
	}
	return models.FormatFixedPrice
}

func preferLocalString(local string, remote *string) string {
	if local != "" {
		return local
	}
	if remote != nil {
		return *remote
	}
	return ""
}

func localTitle(local *models.LocalDraft) string {
	if local == nil {
		return ""
	}
	return local.Title
}

func localDuration(local *models.LocalDraft) string {
	if local == nil {
		return ""
	}
	return local.DurationPolicy
}

func localCurrency(local *models.LocalDraft) string {
	if local == nil {
		return ""
	}
	return local.Currency
}
