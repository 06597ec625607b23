// Package store implements the client's durable local store: crash-safe,
// transactional persistence for survey drafts, captured attachments, and the
// sync queue of mutations owed to the backend. All multi-step mutations run
// inside a single transaction, so an enqueue that has returned survives a
// process restart.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brightfield/sitesurvey/internal/client/models"
	"github.com/brightfield/sitesurvey/internal/client/repositories/attachments"
	"github.com/brightfield/sitesurvey/internal/client/repositories/drafts"
	"github.com/brightfield/sitesurvey/internal/client/repositories/settings"
	"github.com/brightfield/sitesurvey/internal/client/repositories/syncqueue"
	"github.com/brightfield/sitesurvey/internal/common"
	"github.com/brightfield/sitesurvey/internal/dbx"
	"github.com/brightfield/sitesurvey/internal/logging"
	"github.com/google/uuid"
)

// DefaultMaxAttachmentBytes is the per-attachment size ceiling.
const DefaultMaxAttachmentBytes = 10 << 20 // 10 MiB

// TargetTypeSurvey is the logical target for draft record mutations.
const TargetTypeSurvey = "survey"

// RecordPayload is the self-contained body of a create/update queue entry.
// The client id rides inside the payload so the backend can upsert
// idempotently, and the entry can be replayed verbatim after a restart.
type RecordPayload struct {
	ClientID string          `json:"client_id"`
	Snapshot json.RawMessage `json:"snapshot"`
}

// LinkPayload is the body of a link queue entry, carrying the attachment's
// logical location as asset metadata.
type LinkPayload struct {
	Section  string `json:"section"`
	Field    string `json:"field"`
	SubIndex int    `json:"sub_index"`
	MIMEType string `json:"mime_type"`
}

// Store is the single shared mutable resource of the client; every component
// accesses local state through its operation set.
type Store struct {
	db     *sql.DB
	repos  *Repositories
	logger logging.Logger

	maxAttachmentBytes int64
}

// Option customizes a Store.
type Option func(*Store)

// WithMaxAttachmentBytes overrides the attachment size ceiling.
func WithMaxAttachmentBytes(n int64) Option {
	return func(s *Store) { s.maxAttachmentBytes = n }
}

func New(db *sql.DB, repos *Repositories, logger logging.Logger, opts ...Option) *Store {
	s := &Store{
		db:                 db,
		repos:              repos,
		logger:             logger,
		maxAttachmentBytes: DefaultMaxAttachmentBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settings exposes the device-local key/value repository.
func (s *Store) Settings() settings.Repository {
	return s.repos.Settings
}

// SaveFormData writes the draft snapshot and stages a matching record
// mutation on the sync queue, both in one transaction. If the serialized
// snapshot is unchanged since the last write, the call is a no-op and
// returns false. A form value json cannot encode is reported as
// common.ErrInvalidInput; a full disk as common.ErrQuotaExceeded.
func (s *Store) SaveFormData(ctx context.Context, draftID string, form any, isAutoSave bool) (bool, error) {
	snapshot, err := models.MarshalSnapshot(form)
	if err != nil {
		return false, err
	}
	hash := models.SnapshotHash(snapshot)

	existing, err := s.repos.Drafts.GetByID(ctx, draftID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return false, err
	}

	isNew := errors.Is(err, common.ErrNotFound)
	if !isNew && existing.SnapshotHash == hash {
		s.logger.Debug(ctx, "snapshot unchanged, skipping write", "draft_id", draftID, "auto", isAutoSave)
		return false, nil
	}

	kind := models.OpUpdate
	if isNew {
		kind = models.OpCreate
	}

	payload, err := json.Marshal(RecordPayload{ClientID: draftID, Snapshot: snapshot})
	if err != nil {
		return false, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}

	draft := &models.Draft{
		ID:           draftID,
		Snapshot:     snapshot,
		SnapshotHash: hash,
		SyncStatus:   models.SyncStatusUnsynced,
		UpdatedAt:    time.Now().UTC(),
	}
	if !isNew {
		draft.RemoteID = existing.RemoteID
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := drafts.NewSQLiteRepository(tx).Upsert(ctx, draft); err != nil {
			return err
		}
		return syncqueue.NewSQLiteRepository(tx).Append(ctx, &models.SyncEntry{
			Kind:       kind,
			TargetType: TargetTypeSurvey,
			TargetID:   draftID,
			Payload:    payload,
			MaxRetries: models.DefaultMaxRetries,
			Status:     models.EntryStatusPending,
			CreatedAt:  time.Now().UTC(),
		})
	})
	if err != nil {
		return false, mapStorageErr(err)
	}

	return true, nil
}

// SavePhoto stores attachment bytes under their logical location and stages
// two queue entries, an upload and a link, so partial progress survives if
// the blob lands but the record linkage does not. Returns the generated
// attachment id. Nothing is written when the ceiling is exceeded.
func (s *Store) SavePhoto(ctx context.Context, draftID, section, field string, subIndex int, mimeType string, data []byte) (string, error) {
	if int64(len(data)) > s.maxAttachmentBytes {
		return "", fmt.Errorf("%w: %d bytes (limit %d)", common.ErrAttachmentTooLarge, len(data), s.maxAttachmentBytes)
	}

	a := &models.Attachment{
		ID:           uuid.NewString(),
		DraftID:      draftID,
		Section:      section,
		Field:        field,
		SubIndex:     subIndex,
		MIMEType:     mimeType,
		Size:         int64(len(data)),
		Data:         data,
		UploadStatus: models.UploadStatusPending,
		CreatedAt:    time.Now().UTC(),
	}

	linkPayload, err := json.Marshal(LinkPayload{Section: section, Field: field, SubIndex: subIndex, MIMEType: mimeType})
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := attachments.NewSQLiteRepository(tx).Insert(ctx, a); err != nil {
			return err
		}
		queue := syncqueue.NewSQLiteRepository(tx)
		upload := &models.SyncEntry{
			Kind:         models.OpUpload,
			TargetType:   TargetTypeSurvey,
			TargetID:     draftID,
			AttachmentID: a.ID,
			MaxRetries:   models.DefaultMaxRetries,
			Status:       models.EntryStatusPending,
			CreatedAt:    time.Now().UTC(),
		}
		if err := queue.Append(ctx, upload); err != nil {
			return err
		}
		link := &models.SyncEntry{
			Kind:         models.OpLink,
			TargetType:   TargetTypeSurvey,
			TargetID:     draftID,
			Payload:      linkPayload,
			AttachmentID: a.ID,
			MaxRetries:   models.DefaultMaxRetries,
			Status:       models.EntryStatusPending,
			CreatedAt:    time.Now().UTC(),
		}
		return queue.Append(ctx, link)
	})
	if err != nil {
		return "", mapStorageErr(err)
	}

	return a.ID, nil
}

// GetAttachment returns a stored attachment with its bytes.
func (s *Store) GetAttachment(ctx context.Context, id string) (*models.Attachment, error) {
	return s.repos.Attachments.GetByID(ctx, id)
}

// ListAttachmentsByField lists attachments at a logical form location.
func (s *Store) ListAttachmentsByField(ctx context.Context, draftID, section, field string) ([]*models.Attachment, error) {
	return s.repos.Attachments.ListByField(ctx, draftID, section, field)
}

// RemoveAttachment deletes the blob and cancels any queue entry still
// referencing it, so the drain never chases a dangling reference.
func (s *Store) RemoveAttachment(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := attachments.NewSQLiteRepository(tx).DeleteByID(ctx, id); err != nil {
			return err
		}
		n, err := syncqueue.NewSQLiteRepository(tx).CancelByAttachment(ctx, id, "attachment removed before upload")
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.Info(ctx, "cancelled queued work for removed attachment", "attachment_id", id, "entries", n)
		}
		return nil
	})
}

// MarkAttachmentUploaded records confirmed blob delivery.
func (s *Store) MarkAttachmentUploaded(ctx context.Context, id string) error {
	return s.repos.Attachments.MarkUploaded(ctx, id)
}

// DiscardAttachment drops attachment bytes after the asset is fully linked.
func (s *Store) DiscardAttachment(ctx context.Context, id string) error {
	return s.repos.Attachments.DeleteByID(ctx, id)
}

// GetDraft returns a draft by its local id.
func (s *Store) GetDraft(ctx context.Context, id string) (*models.Draft, error) {
	return s.repos.Drafts.GetByID(ctx, id)
}

// ListDrafts returns all local drafts, newest first.
func (s *Store) ListDrafts(ctx context.Context) ([]*models.Draft, error) {
	return s.repos.Drafts.List(ctx)
}

// SetDraftSyncStatus updates a draft's reconciliation status.
func (s *Store) SetDraftSyncStatus(ctx context.Context, id string, status models.SyncStatus) error {
	return s.repos.Drafts.SetSyncStatus(ctx, id, status)
}

// SetDraftRemoteID records the backend-assigned id. The local id remains the
// storage key; queued entries keyed by it stay valid.
func (s *Store) SetDraftRemoteID(ctx context.Context, id, remoteID string) error {
	return s.repos.Drafts.SetRemoteID(ctx, id, remoteID)
}

// DiscardDraft removes a draft and its attachments locally and cancels all
// pending work addressed to it. If the draft already exists remotely, a
// delete operation is staged instead of the cancelled ones.
func (s *Store) DiscardDraft(ctx context.Context, id string) error {
	draft, err := s.repos.Drafts.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		attachRepo := attachments.NewSQLiteRepository(tx)
		list, err := attachRepo.ListByDraft(ctx, id)
		if err != nil {
			return err
		}
		for _, a := range list {
			if err := attachRepo.DeleteByID(ctx, a.ID); err != nil {
				return err
			}
		}

		queue := syncqueue.NewSQLiteRepository(tx)
		if _, err := queue.CancelByTarget(ctx, TargetTypeSurvey, id, "draft discarded"); err != nil {
			return err
		}

		if draft.RemoteID != "" {
			payload, err := json.Marshal(RecordPayload{ClientID: id})
			if err != nil {
				return err
			}
			if err := queue.Append(ctx, &models.SyncEntry{
				Kind:       models.OpDelete,
				TargetType: TargetTypeSurvey,
				TargetID:   id,
				Payload:    payload,
				MaxRetries: models.DefaultMaxRetries,
				Status:     models.EntryStatusPending,
				CreatedAt:  time.Now().UTC(),
			}); err != nil {
				return err
			}
		}

		return drafts.NewSQLiteRepository(tx).DeleteByID(ctx, id)
	})
}

// GetSyncQueue returns all pending entries, FIFO by creation.
func (s *Store) GetSyncQueue(ctx context.Context) ([]*models.SyncEntry, error) {
	return s.repos.Queue.ListPending(ctx)
}

// AddToSyncQueue durably appends an entry with pending status and a fresh
// retry budget.
func (s *Store) AddToSyncQueue(ctx context.Context, e *models.SyncEntry) error {
	e.Status = models.EntryStatusPending
	e.RetryCount = 0
	if e.MaxRetries == 0 {
		e.MaxRetries = models.DefaultMaxRetries
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := s.repos.Queue.Append(ctx, e); err != nil {
		return mapStorageErr(err)
	}
	return nil
}

// UpdateSyncQueueEntry applies a partial update; used only by the sync
// orchestrator.
func (s *Store) UpdateSyncQueueEntry(ctx context.Context, id int64, patch syncqueue.Patch) error {
	return s.repos.Queue.Update(ctx, id, patch)
}

// RemoveSyncQueueEntry deletes an entry after confirmed success; used only
// by the sync orchestrator.
func (s *Store) RemoveSyncQueueEntry(ctx context.Context, id int64) error {
	return s.repos.Queue.Remove(ctx, id)
}

// PendingCount reports the current sync-queue depth.
// RecoverSyncQueue returns entries stuck at processing to pending and
// reports how many were recovered. With no drain running, a processing row
// can only be left over from an interrupted one.
func (s *Store) RecoverSyncQueue(ctx context.Context) (int64, error) {
	return s.repos.Queue.ResetProcessing(ctx)
}

func (s *Store) PendingCount(ctx context.Context) (int, error) {
	return s.repos.Queue.CountPending(ctx)
}

// DeadLetters returns permanently failed entries kept for inspection.
func (s *Store) DeadLetters(ctx context.Context) ([]*models.SyncEntry, error) {
	return s.repos.Queue.ListFailed(ctx)
}

// mapStorageErr converts driver-level exhaustion errors into the sentinel
// the form layer degrades on.
func mapStorageErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database or disk is full") || strings.Contains(msg, "disk is full") {
		return fmt.Errorf("%w: %v", common.ErrQuotaExceeded, err)
	}
	return err
}
