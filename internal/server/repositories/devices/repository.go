package devices

import (
	"context"

	"github.com/brightfield/sitesurvey/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, device *models.Device) error
	GetByID(ctx context.Context, id string) (*models.Device, error)
}
