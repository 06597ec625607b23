package assets

import (
	"context"

	"github.com/brightfield/sitesurvey/internal/server/models"
)

type Repository interface {
	// Upsert links a blob to a record, keyed by storage path so replayed
	// links converge on one row. Returns the asset id.
	Upsert(ctx context.Context, asset *models.Asset) (string, error)
	ListByRecord(ctx context.Context, recordID string) ([]*models.Asset, error)
}
