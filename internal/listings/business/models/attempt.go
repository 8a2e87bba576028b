package models

import "time"

type SyncOutcome string

const (
	OutcomeInProgress SyncOutcome = "in_progress"
	OutcomeCompleted  SyncOutcome = "completed"
	OutcomeFailed     SyncOutcome = "failed"
)

// SyncAttempt is one orchestrator run for a given (account, scope). Created
// when the run is admitted, mutated only by that run, frozen once the
// outcome leaves in_progress.
type SyncAttempt struct {
	AttemptID       string
	AccountKey      string
	ScopeKey        string
	StartedAt       time.Time
	CompletedAt     *time.Time
	ItemsSynced     int
	RemoteCallsMade int
	Outcome         SyncOutcome
	FailureReason   string
}

// BulkScopeKey is the scope key shared by every bulk refresh of an account.
const BulkScopeKey = "bulk"

// SingleItemScopeKey keys single-item refreshes per remote id, so refreshing
// one item never blocks refreshing another.
func SingleItemScopeKey(remoteID string) string {
	return "single:" + remoteID
}
