package models

// RemoteListing is the typed form of one marketplace listing as reported by
// the provider. Every telemetry field is optional: the provider omits fields
// freely and a missing field on one item must not fail a whole sync.
type RemoteListing struct {
	RemoteID      string
	Title         *string
	CurrentPrice  *float64
	Currency      *string
	Status        *string
	ListingFormat *string
	Duration      *string
	Quantity      *int
	QuantitySold  *int
	WatchCount    *int
	ViewCount     *int
	BidCount      *int
	TimeRemaining *string
	RemoteURL     *string
}

// ListingsPage is one page of a paginated listing fetch. The page sequence
// for one sync counts as a single logical fetch.
type ListingsPage struct {
	Items   []RemoteListing
	Cursor  string
	HasMore bool
}
