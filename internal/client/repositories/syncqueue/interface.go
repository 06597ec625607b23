// Package syncqueue persists the durable queue of mutations the client owes
// the backend. Entry ids are assigned by the database and define FIFO drain
// order.
package syncqueue

import (
	"context"

	"github.com/brightfield/sitesurvey/internal/client/models"
)

// Patch describes a partial update to a queue entry. Nil fields are left
// untouched.
type Patch struct {
	Status     *models.EntryStatus
	RetryCount *int
	LastError  *string
}

// Repository describes storage operations for sync-queue entries.
type Repository interface {
	// Append adds a new entry and fills in its assigned id. The entry becomes
	// durable when the surrounding transaction commits.
	Append(ctx context.Context, e *models.SyncEntry) error

	// ListPending returns pending entries in FIFO order by id.
	ListPending(ctx context.Context) ([]*models.SyncEntry, error)

	// ListFailed returns dead-letter entries, newest first.
	ListFailed(ctx context.Context) ([]*models.SyncEntry, error)

	// GetByID returns the entry or common.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.SyncEntry, error)

	// Update applies a patch to the entry.
	Update(ctx context.Context, id int64, patch Patch) error

	// Remove deletes the entry after confirmed success.
	Remove(ctx context.Context, id int64) error

	// CancelByAttachment marks any non-completed entry referencing the
	// attachment as failed with the given reason, and returns how many
	// entries were cancelled.
	CancelByAttachment(ctx context.Context, attachmentID string, reason string) (int64, error)

	// CancelByTarget does the same for all entries addressing a logical
	// target, used when a draft is discarded locally.
	CancelByTarget(ctx context.Context, targetType, targetID, reason string) (int64, error)

	// CountPending returns the number of pending entries.
	CountPending(ctx context.Context) (int, error)

	// ResetProcessing returns entries stranded in the processing state to
	// pending, and reports how many were reset. A row can only be caught at
	// processing when the process died mid-operation; the entry must rejoin
	// the drain rather than disappear.
	ResetProcessing(ctx context.Context) (int64, error)
}
