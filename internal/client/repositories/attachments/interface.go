// Package attachments stores captured binary blobs (photos, signatures)
// keyed by their logical location within a draft.
package attachments

import (
	"context"

	"github.com/brightfield/sitesurvey/internal/client/models"
)

// Repository describes storage operations for Attachment rows.
type Repository interface {
	// Insert stores a new attachment. Attachments are immutable; there is no
	// update operation.
	Insert(ctx context.Context, a *models.Attachment) error

	// GetByID returns the attachment (including bytes) or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Attachment, error)

	// ListByField returns attachments for a (draft, section, field) location,
	// ordered by sub-index then creation time. Data bytes are included so the
	// form layer can render thumbnails before upload.
	ListByField(ctx context.Context, draftID, section, field string) ([]*models.Attachment, error)

	// ListByDraft returns all attachments for a draft, without Data bytes.
	ListByDraft(ctx context.Context, draftID string) ([]*models.Attachment, error)

	// MarkUploaded flips the upload status once blob delivery is confirmed.
	MarkUploaded(ctx context.Context, id string) error

	// DeleteByID removes the attachment row.
	DeleteByID(ctx context.Context, id string) error
}
