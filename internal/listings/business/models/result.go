package models

import "time"

type RefreshStatus string

const (
	RefreshCompleted RefreshStatus = "completed"
	RefreshRejected  RefreshStatus = "rejected"
	RefreshFailed    RefreshStatus = "failed"
)

// RefreshResult is what a refresh entry point hands back to the caller.
// RetryAfter is set only on rate-limited rejections.
type RefreshResult struct {
	Status      RefreshStatus
	RetryAfter  time.Duration
	ItemsSynced int
	Error       string
}
