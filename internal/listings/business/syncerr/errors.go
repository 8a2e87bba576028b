package syncerr

import "errors"

// Failure classes for a synchronization run. The orchestrator records the
// class in the sync attempt and the HTTP layer picks the user-facing message
// from it, so implementations must wrap one of these sentinels rather than
// returning bare errors.
var (
	// ErrRemoteUnavailable covers network failures, provider timeouts and
	// provider-side throttling mid-fetch. Retryable after the cooldown.
	ErrRemoteUnavailable = errors.New("remote marketplace unavailable")

	// ErrRemoteRejected covers auth/permission failures. Not retryable
	// without reconnecting the account.
	ErrRemoteRejected = errors.New("remote marketplace rejected credentials")

	// ErrRemoteNotFound is returned by single-item lookups for an unknown
	// remote id, distinct from an empty bulk result.
	ErrRemoteNotFound = errors.New("remote listing not found")

	// ErrMalformedRemoteData marks an unparseable page or item.
	ErrMalformedRemoteData = errors.New("malformed remote data")

	// ErrStorageFailure marks a cache or audit-log write failure. Prior
	// cache state stays intact.
	ErrStorageFailure = errors.New("storage failure")

	// ErrSyncInProgress rejects a second run for a scope that already has
	// one in flight.
	ErrSyncInProgress = errors.New("sync already in progress")
)

// Classify maps an error to the sentinel it wraps, or nil for unclassified
// errors. Unclassified fetch errors are treated as remote unavailability by
// the orchestrator.
func Classify(err error) error {
	for _, sentinel := range []error{
		ErrRemoteRejected,
		ErrRemoteNotFound,
		ErrMalformedRemoteData,
		ErrStorageFailure,
		ErrSyncInProgress,
		ErrRemoteUnavailable,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}
