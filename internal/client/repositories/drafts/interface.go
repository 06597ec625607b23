// Package drafts persists in-progress survey drafts in the local database.
package drafts

import (
	"context"

	"github.com/brightfield/sitesurvey/internal/client/models"
)

// Repository describes storage operations for Draft rows.
// Implementations are typically backed by a local SQLite database.
type Repository interface {
	// Upsert inserts or overwrites the draft snapshot by id.
	Upsert(ctx context.Context, d *models.Draft) error

	// GetByID returns the draft or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Draft, error)

	// List returns all drafts ordered by last modification, newest first.
	List(ctx context.Context) ([]*models.Draft, error)

	// SetSyncStatus updates only the reconciliation status.
	SetSyncStatus(ctx context.Context, id string, status models.SyncStatus) error

	// SetRemoteID records the backend-assigned record id.
	SetRemoteID(ctx context.Context, id string, remoteID string) error

	// DeleteByID removes the draft row.
	DeleteByID(ctx context.Context, id string) error
}
