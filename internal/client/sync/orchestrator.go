// Package sync drains the durable queue of pending mutations against the
// backend. One drain pass walks the queue in FIFO order, isolates failures
// per logical target, and applies the retry policy; the orchestrator then
// schedules follow-up passes with capped exponential backoff while retryable
// work remains.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/brightfield/sitesurvey/internal/client/api"
	"github.com/brightfield/sitesurvey/internal/client/connectivity"
	"github.com/brightfield/sitesurvey/internal/client/models"
	"github.com/brightfield/sitesurvey/internal/client/repositories/syncqueue"
	"github.com/brightfield/sitesurvey/internal/client/store"
	"github.com/brightfield/sitesurvey/internal/common"
	"github.com/brightfield/sitesurvey/internal/logging"
	"github.com/sethvargo/go-retry"
)

// RecordKindSurvey is the record kind sent for survey drafts.
const RecordKindSurvey = "survey"

// Result aggregates one sync run for callers and the UI.
type Result struct {
	// Success is true when no entry failed during the run.
	Success bool
	// Uploaded counts entries confirmed by the backend and removed.
	Uploaded int
	// Failed counts entries that ended the run in the failed state.
	Failed int
	// Remaining counts entries still pending after the run.
	Remaining int
}

// Progress reports drain progress so the UI can render a bar during long
// runs (e.g., many queued photo uploads).
type Progress struct {
	Total     int
	Completed int
	Current   string
}

// Orchestrator coordinates drain passes. Only one run may be active at a
// time process-wide; concurrent triggers coalesce into a no-op.
type Orchestrator struct {
	store  *store.Store
	client api.Client
	state  *connectivity.State
	logger logging.Logger

	onProgress func(Progress)

	backoffBase time.Duration
	backoffCap  time.Duration
	maxPasses   uint64

	draining atomic.Bool
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithBackoff overrides the between-pass backoff constants.
func WithBackoff(base, cap time.Duration, maxPasses uint64) Option {
	return func(o *Orchestrator) {
		o.backoffBase = base
		o.backoffCap = cap
		o.maxPasses = maxPasses
	}
}

// WithProgress registers the progress callback.
func WithProgress(fn func(Progress)) Option {
	return func(o *Orchestrator) { o.onProgress = fn }
}

func New(s *store.Store, client api.Client, state *connectivity.State, logger logging.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:       s,
		client:      client,
		state:       state,
		logger:      logger,
		backoffBase: 2 * time.Second,
		backoffCap:  time.Minute,
		maxPasses:   5,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// TriggerSync lets the connectivity monitor start a run; errors are logged,
// a coalesced trigger is a debug-level non-event.
func (o *Orchestrator) TriggerSync(ctx context.Context) {
	res, err := o.Run(ctx)
	switch {
	case errors.Is(err, common.ErrSyncInProgress):
		o.logger.Debug(ctx, "sync trigger coalesced")
	case err != nil:
		o.logger.Error(ctx, "sync run failed", "error", err)
	default:
		o.logger.Info(ctx, "sync run finished",
			"uploaded", res.Uploaded, "failed", res.Failed, "remaining", res.Remaining)
	}
}

// Run executes drain passes until the queue is clear of retryable work, the
// pass budget is spent, or ctx is cancelled. Returns common.ErrSyncInProgress
// when another run holds the drain guard.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	if !o.draining.CompareAndSwap(false, true) {
		return nil, common.ErrSyncInProgress
	}
	defer o.draining.Store(false)

	o.state.SetSyncing(true)
	defer o.state.SetSyncing(false)

	backoff := retry.WithMaxRetries(o.maxPasses, retry.WithCappedDuration(o.backoffCap, retry.NewExponential(o.backoffBase)))

	total := &Result{}
	ran := false
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		res, err := o.drainPass(ctx)
		if err != nil {
			return err
		}
		ran = true
		total.Uploaded += res.Uploaded
		total.Failed += res.Failed
		total.Remaining = res.Remaining
		if res.Remaining > 0 {
			return retry.RetryableError(fmt.Errorf("%d entries still pending", res.Remaining))
		}
		return nil
	})
	total.Success = total.Failed == 0 && total.Remaining == 0
	if err != nil && ran {
		// Pass budget exhausted with work left over; the next connectivity
		// trigger or manual sync picks it up.
		return total, nil
	}
	if err != nil {
		return nil, err
	}
	return total, nil
}

// Drain executes exactly one pass, for callers that manage their own
// scheduling. Shares the single-run guard with Run.
func (o *Orchestrator) Drain(ctx context.Context) (*Result, error) {
	if !o.draining.CompareAndSwap(false, true) {
		return nil, common.ErrSyncInProgress
	}
	defer o.draining.Store(false)

	o.state.SetSyncing(true)
	defer o.state.SetSyncing(false)

	return o.drainPass(ctx)
}

func (o *Orchestrator) drainPass(ctx context.Context) (*Result, error) {
	// Only one drain runs process-wide, so any processing row at this point
	// was stranded by an earlier interrupted pass and must rejoin the queue.
	recovered, err := o.store.RecoverSyncQueue(ctx)
	if err != nil {
		return nil, fmt.Errorf("recovering sync queue: %w", err)
	}
	if recovered > 0 {
		o.logger.Warn(ctx, "recovered entries stuck in processing", "count", recovered)
	}

	entries, err := o.store.GetSyncQueue(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading sync queue: %w", err)
	}

	res := &Result{}
	total := len(entries)

	// Targets whose entry failed this pass: later entries for the same
	// target are skipped so same-target operations never run out of order.
	blocked := make(map[string]bool)

	// Entries actually handled; skipped entries are not completed work.
	processed := 0

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if blocked[entry.TargetKey()] {
			continue
		}

		o.reportProgress(Progress{
			Total:     total,
			Completed: processed,
			Current:   fmt.Sprintf("%s %s", entry.Kind, entry.TargetID),
		})
		processed++

		if err := o.markStatus(ctx, entry.ID, models.EntryStatusProcessing, nil); err != nil {
			return nil, err
		}

		execErr := o.execute(ctx, entry)
		if execErr == nil {
			if err := o.store.RemoveSyncQueueEntry(ctx, entry.ID); err != nil {
				return nil, err
			}
			res.Uploaded++
			continue
		}

		blocked[entry.TargetKey()] = true

		if api.IsPermanent(execErr) {
			// Terminal outcome; no retry slot consumed.
			o.logger.Warn(ctx, "entry failed permanently",
				"entry_id", entry.ID, "kind", entry.Kind, "error", execErr)
			if err := o.markStatus(ctx, entry.ID, models.EntryStatusFailed, execErr); err != nil {
				return nil, err
			}
			res.Failed++
			continue
		}

		entry.RetryCount++
		if entry.Retryable() {
			o.logger.Debug(ctx, "entry failed, will retry",
				"entry_id", entry.ID, "retry_count", entry.RetryCount, "error", execErr)
			if err := o.markRetry(ctx, entry, execErr); err != nil {
				return nil, err
			}
			continue
		}

		o.logger.Warn(ctx, "entry exhausted retries, moving to dead letter",
			"entry_id", entry.ID, "kind", entry.Kind, "error", execErr)
		if err := o.markExhausted(ctx, entry, execErr); err != nil {
			return nil, err
		}
		res.Failed++
	}

	remaining, err := o.store.PendingCount(ctx)
	if err != nil {
		return nil, err
	}
	res.Remaining = remaining
	res.Success = res.Failed == 0

	o.state.SetPendingCount(remaining)
	o.state.SetLastSyncAttempt(time.Now().UTC())

	o.reportProgress(Progress{Total: total, Completed: total})

	return res, nil
}

// execute dispatches one entry to the boundary adapter and applies the
// post-success bookkeeping its kind requires.
func (o *Orchestrator) execute(ctx context.Context, entry *models.SyncEntry) error {
	switch entry.Kind {
	case models.OpCreate:
		remoteID, err := o.client.CreateRecord(ctx, RecordKindSurvey, entry.Payload)
		if err != nil {
			return err
		}
		if err := o.store.SetDraftRemoteID(ctx, entry.TargetID, remoteID); err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		return o.markDraftSynced(ctx, entry.TargetID)

	case models.OpUpdate:
		if err := o.client.UpdateRecord(ctx, entry.TargetID, entry.Payload); err != nil {
			return err
		}
		return o.markDraftSynced(ctx, entry.TargetID)

	case models.OpDelete:
		err := o.client.DeleteRecord(ctx, entry.TargetID)
		if errors.Is(err, common.ErrNotFound) {
			// Already gone remotely; deletion is idempotent.
			return nil
		}
		return err

	case models.OpUpload:
		a, err := o.store.GetAttachment(ctx, entry.AttachmentID)
		if err != nil {
			// Attachment removed before upload: terminal.
			return err
		}
		if _, err := o.client.UploadBlob(ctx, a.StoragePath(), a.Data, a.MIMEType); err != nil {
			return err
		}
		return o.store.MarkAttachmentUploaded(ctx, a.ID)

	case models.OpLink:
		draft, err := o.store.GetDraft(ctx, entry.TargetID)
		if err != nil {
			return err
		}
		if draft.RemoteID == "" {
			// The record create has not reached the backend yet; retry on a
			// later pass once it has.
			return fmt.Errorf("%w: draft %s has no remote id yet", api.ErrUnavailable, entry.TargetID)
		}
		a, err := o.store.GetAttachment(ctx, entry.AttachmentID)
		if err != nil {
			return err
		}
		if _, err := o.client.LinkAsset(ctx, draft.RemoteID, a.StoragePath(), entry.Payload); err != nil {
			return err
		}
		// Blob delivered and linked; local bytes are no longer needed.
		return o.store.DiscardAttachment(ctx, a.ID)

	default:
		return fmt.Errorf("%w: unknown operation kind %q", api.ErrRejected, entry.Kind)
	}
}

func (o *Orchestrator) markDraftSynced(ctx context.Context, draftID string) error {
	err := o.store.SetDraftSyncStatus(ctx, draftID, models.SyncStatusSynced)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	return err
}

func (o *Orchestrator) markStatus(ctx context.Context, id int64, status models.EntryStatus, cause error) error {
	patch := syncqueue.Patch{Status: &status}
	if cause != nil {
		msg := cause.Error()
		patch.LastError = &msg
	}
	return o.store.UpdateSyncQueueEntry(ctx, id, patch)
}

func (o *Orchestrator) markRetry(ctx context.Context, entry *models.SyncEntry, cause error) error {
	status := models.EntryStatusPending
	msg := cause.Error()
	return o.store.UpdateSyncQueueEntry(ctx, entry.ID, syncqueue.Patch{
		Status:     &status,
		RetryCount: &entry.RetryCount,
		LastError:  &msg,
	})
}

func (o *Orchestrator) markExhausted(ctx context.Context, entry *models.SyncEntry, cause error) error {
	status := models.EntryStatusFailed
	msg := cause.Error()
	return o.store.UpdateSyncQueueEntry(ctx, entry.ID, syncqueue.Patch{
		Status:     &status,
		RetryCount: &entry.RetryCount,
		LastError:  &msg,
	})
}

func (o *Orchestrator) reportProgress(p Progress) {
	if o.onProgress != nil {
		o.onProgress(p)
	}
}

// PendingPayload decodes a record payload for inspection tooling.
func PendingPayload(entry *models.SyncEntry) (*store.RecordPayload, error) {
	var p store.RecordPayload
	if err := json.Unmarshal(entry.Payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
