package sync

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"golistingsync_api/config/values"
	"golistingsync_api/internal/listings/business/models"
	"golistingsync_api/internal/listings/business/services/ratelimit"
	"golistingsync_api/internal/listings/business/services/reconcile"
	"golistingsync_api/internal/listings/business/syncerr"
	"golistingsync_api/metrics"
	"golistingsync_api/pkg/logger"
)

// RemoteSource is the slice of the marketplace API the orchestrator
// consumes.
type RemoteSource interface {
	FetchListingsPage(ctx context.Context, accountKey, cursor string, limit int) (*models.ListingsPage, error)
	FetchListing(ctx context.Context, accountKey, remoteID string) (*models.RemoteListing, error)
}

type CacheStore interface {
	ReplaceScope(ctx context.Context, accountKey string, records []models.CachedListingRecord) error
	Upsert(ctx context.Context, record models.CachedListingRecord) error
}

type AuditLog interface {
	Begin(ctx context.Context, attempt *models.SyncAttempt) error
	Finish(ctx context.Context, attempt *models.SyncAttempt) error
}

type DraftProvider interface {
	DraftsByAccount(ctx context.Context, accountKey string) ([]models.LocalDraft, error)
	DraftByRemoteID(ctx context.Context, accountKey, remoteID string) (*models.LocalDraft, error)
}

// Orchestrator runs a refresh end to end: rate-limit gate, remote fetch,
// reconcile, cache write, audit write. A run either completes (the cache
// reflects remote state as of fetch start) or leaves the cache exactly as it
// was.
type Orchestrator struct {
	limiter    *ratelimit.Limiter
	reconciler *reconcile.Reconciler
	remote     RemoteSource
	cache      CacheStore
	audit      AuditLog
	drafts     DraftProvider
	values     values.SyncValues
	inflight   *inflightRegistry
	pacer      *rate.Limiter
	log        logger.Logger
	now        func() time.Time
}

func NewOrchestrator(
	limiter *ratelimit.Limiter,
	reconciler *reconcile.Reconciler,
	remote RemoteSource,
	cache CacheStore,
	audit AuditLog,
	drafts DraftProvider,
	syncValues values.SyncValues,
	writer io.Writer,
) *Orchestrator {
	_log := logger.NewLogger(writer, "[SyncOrchestrator]")
	return &Orchestrator{
		limiter:    limiter,
		reconciler: reconciler,
		remote:     remote,
		cache:      cache,
		audit:      audit,
		drafts:     drafts,
		values:     syncValues,
		inflight:   newInflightRegistry(),
		pacer:      rate.NewLimiter(rate.Limit(syncValues.FetchPagesPerSecond), syncValues.FetchPagesPerSecond),
		log:        _log,
		now:        time.Now,
	}
}

// RefreshAll synchronizes every listing of the account with the remote
// marketplace.
func (o *Orchestrator) RefreshAll(ctx context.Context, accountKey string) models.RefreshResult {
	return o.run(ctx, accountKey, models.BulkScopeKey, o.values.BulkMinInterval.Std(), o.fetchAndReplaceAll)
}

// RefreshOne synchronizes a single listing by remote id. Single-item windows
// are independent per remote id.
func (o *Orchestrator) RefreshOne(ctx context.Context, accountKey, remoteID string) models.RefreshResult {
	return o.run(ctx, accountKey, models.SingleItemScopeKey(remoteID), o.values.SingleItemMinInterval.Std(),
		func(ctx context.Context, attempt *models.SyncAttempt) error {
			return o.fetchAndUpsertOne(ctx, attempt, remoteID)
		})
}

// run walks the attempt state machine: the gate (Rejected), an in-progress
// attempt record, the scope-specific work, and the completion record. A
// rejected run never creates an attempt row and never issues a remote call.
func (o *Orchestrator) run(ctx context.Context, accountKey, scopeKey string, minInterval time.Duration,
	work func(ctx context.Context, attempt *models.SyncAttempt) error) models.RefreshResult {

	started := o.now()
	runLog := o.log.WithPrefix(accountKey)
	inflightKey := accountKey + "|" + scopeKey
	if !o.inflight.acquire(inflightKey) {
		runLog.Log("Rejecting %s: already in progress", scopeKey)
		metrics.RecordSyncAttempt(scopeKey, "rejected", 0, o.now().Sub(started))
		return models.RefreshResult{
			Status: models.RefreshRejected,
			Error:  syncerr.ErrSyncInProgress.Error(),
		}
	}
	defer o.inflight.release(inflightKey)

	allowed, retryAfter, err := o.limiter.MaySync(ctx, accountKey, scopeKey, minInterval)
	if err != nil {
		runLog.Log("Rate-limit state unreadable for %s: %v", scopeKey, err)
		metrics.RecordSyncAttempt(scopeKey, "failed", 0, o.now().Sub(started))
		return models.RefreshResult{Status: models.RefreshFailed, Error: err.Error()}
	}
	if !allowed {
		metrics.RecordSyncAttempt(scopeKey, "rejected", 0, o.now().Sub(started))
		return models.RefreshResult{Status: models.RefreshRejected, RetryAfter: retryAfter}
	}

	attempt := &models.SyncAttempt{
		AttemptID:  uuid.NewString(),
		AccountKey: accountKey,
		ScopeKey:   scopeKey,
		StartedAt:  started,
		Outcome:    models.OutcomeInProgress,
	}
	if err := o.audit.Begin(ctx, attempt); err != nil {
		runLog.Log("Failed to record attempt start for %s: %v", scopeKey, err)
		metrics.RecordSyncAttempt(scopeKey, "failed", 0, o.now().Sub(started))
		return models.RefreshResult{Status: models.RefreshFailed, Error: err.Error()}
	}

	if err := work(ctx, attempt); err != nil {
		return o.fail(ctx, attempt, err)
	}

	completed := o.now()
	attempt.CompletedAt = &completed
	attempt.Outcome = models.OutcomeCompleted
	if err := o.audit.Finish(ctx, attempt); err != nil {
		// Without a completion record the limiter cannot see this run;
		// surface it as a failure rather than silently unlimited syncs.
		// The cache write already happened, so say so.
		runLog.Log("Failed to record attempt completion %s: %v", attempt.AttemptID, err)
		metrics.RecordSyncAttempt(scopeKey, "failed", attempt.RemoteCallsMade, o.now().Sub(started))
		return models.RefreshResult{
			Status: models.RefreshFailed,
			Error:  fmt.Sprintf("cache was updated but recording the completion failed: %v", err),
		}
	}

	runLog.Log("Sync %s completed: %d items, %d remote calls",
		scopeKey, attempt.ItemsSynced, attempt.RemoteCallsMade)
	metrics.RecordSyncAttempt(scopeKey, "completed", attempt.RemoteCallsMade, o.now().Sub(started))
	return models.RefreshResult{
		Status:      models.RefreshCompleted,
		ItemsSynced: attempt.ItemsSynced,
	}
}

func (o *Orchestrator) fail(ctx context.Context, attempt *models.SyncAttempt, cause error) models.RefreshResult {
	class := syncerr.Classify(cause)
	if class == nil {
		class = syncerr.ErrRemoteUnavailable
		cause = fmt.Errorf("%w: %v", class, cause)
	}

	completed := o.now()
	attempt.CompletedAt = &completed
	attempt.Outcome = models.OutcomeFailed
	attempt.FailureReason = cause.Error()

	if err := o.audit.Finish(ctx, attempt); err != nil {
		o.log.Log("Failed to record attempt failure %s: %v", attempt.AttemptID, err)
	}

	o.log.Log("Sync %s failed for %s (%v): %v", attempt.ScopeKey, attempt.AccountKey, class, cause)
	metrics.RecordSyncAttempt(attempt.ScopeKey, "failed", attempt.RemoteCallsMade, completed.Sub(attempt.StartedAt))
	return models.RefreshResult{Status: models.RefreshFailed, Error: cause.Error()}
}

// fetchAndReplaceAll pulls the full page sequence, reconciles every remote
// item against the account's drafts and installs the merged set atomically.
// Any fetch error aborts before the cache is touched.
func (o *Orchestrator) fetchAndReplaceAll(ctx context.Context, attempt *models.SyncAttempt) error {
	fetchCtx, cancel := context.WithTimeout(ctx, o.values.FetchTimeout.Std())
	defer cancel()

	fetchStart := o.now()
	var items []models.RemoteListing
	cursor := ""
	for {
		if err := o.pacer.Wait(fetchCtx); err != nil {
			return fmt.Errorf("%w: fetch timed out", syncerr.ErrRemoteUnavailable)
		}
		page, err := o.remote.FetchListingsPage(fetchCtx, attempt.AccountKey, cursor, o.values.FetchPageSize)
		attempt.RemoteCallsMade++
		if err != nil {
			if fetchCtx.Err() != nil {
				return fmt.Errorf("%w: fetch timed out: %v", syncerr.ErrRemoteUnavailable, err)
			}
			return err
		}
		items = append(items, page.Items...)
		if !page.HasMore {
			break
		}
		cursor = page.Cursor
	}

	drafts, err := o.drafts.DraftsByAccount(ctx, attempt.AccountKey)
	if err != nil {
		return err
	}
	draftsByRemoteID := make(map[string]*models.LocalDraft, len(drafts))
	for i := range drafts {
		if drafts[i].RemoteID != "" {
			draftsByRemoteID[drafts[i].RemoteID] = &drafts[i]
		}
	}

	records := make([]models.CachedListingRecord, 0, len(items))
	for i := range items {
		local := draftsByRemoteID[items[i].RemoteID]
		records = append(records, o.reconciler.Reconcile(attempt.AccountKey, local, &items[i], fetchStart))
	}

	if err := o.cache.ReplaceScope(ctx, attempt.AccountKey, records); err != nil {
		return err
	}
	attempt.ItemsSynced = len(records)
	return nil
}

func (o *Orchestrator) fetchAndUpsertOne(ctx context.Context, attempt *models.SyncAttempt, remoteID string) error {
	fetchCtx, cancel := context.WithTimeout(ctx, o.values.FetchTimeout.Std())
	defer cancel()

	fetchStart := o.now()
	remote, err := o.remote.FetchListing(fetchCtx, attempt.AccountKey, remoteID)
	attempt.RemoteCallsMade++
	if err != nil {
		if fetchCtx.Err() != nil {
			return fmt.Errorf("%w: fetch timed out: %v", syncerr.ErrRemoteUnavailable, err)
		}
		return err
	}

	local, err := o.drafts.DraftByRemoteID(ctx, attempt.AccountKey, remoteID)
	if err != nil {
		return err
	}

	record := o.reconciler.Reconcile(attempt.AccountKey, local, remote, fetchStart)
	if err := o.cache.Upsert(ctx, record); err != nil {
		return err
	}
	attempt.ItemsSynced = 1
	return nil
}
