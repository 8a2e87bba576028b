package models

import "time"

type ListingStatus string

const (
	StatusDraft     ListingStatus = "draft"
	StatusScheduled ListingStatus = "scheduled"
	StatusActive    ListingStatus = "active"
	StatusSold      ListingStatus = "sold"
	StatusEnded     ListingStatus = "ended"
	StatusError     ListingStatus = "error"
)

type ListingFormat string

const (
	FormatFixedPrice ListingFormat = "fixed_price"
	FormatAuction    ListingFormat = "auction"
)

type SourceOfTruth string

const (
	SourceLocalOnly SourceOfTruth = "local_only"
	SourceMerged    SourceOfTruth = "merged"
)

// CachedListingRecord is the reconciled, display-ready view of one listing.
// LocalID is owned by the local system and never changes; RemoteID is set
// once the listing exists on the marketplace.
type CachedListingRecord struct {
	LocalID        string
	AccountKey     string
	RemoteID       string
	Title          string
	Price          float64
	Currency       string
	ListingFormat  ListingFormat
	DurationPolicy string
	Status         ListingStatus
	Quantity       int
	QuantitySold   int
	ViewCount      int
	WatchCount     int
	BidCount       int
	TimeRemaining  string
	RemoteURL      string
	LastSyncedAt   *time.Time
	SourceOfTruth  SourceOfTruth
}

// LocalDraft is the seller-authored side of a listing, owned by draft
// management outside this engine. RemoteID is empty until the draft has been
// submitted to the marketplace.
type LocalDraft struct {
	LocalID        string
	AccountKey     string
	RemoteID       string
	Title          string
	Price          float64
	Currency       string
	ListingFormat  ListingFormat
	DurationPolicy string
	WorkflowState  ListingStatus
	Quantity       int
}

// SynthesizedLocalID builds the deterministic local id for a listing that
// exists remotely but has no local draft. Deterministic so repeated bulk
// refreshes land on the same cache row.
func SynthesizedLocalID(remoteID string) string {
	return "r-" + remoteID
}
