package records

import (
	"context"
	"encoding/json"

	"github.com/brightfield/sitesurvey/internal/server/models"
)

type Repository interface {
	// Upsert creates or replaces the record addressed by ClientID and returns
	// the server-assigned id. Replays of the same create converge on one row.
	Upsert(ctx context.Context, record *models.Record) (string, error)
	GetByClientID(ctx context.Context, clientID string) (*models.Record, error)
	UpdatePayload(ctx context.Context, clientID, deviceID string, payload json.RawMessage) error
	Delete(ctx context.Context, clientID, deviceID string) error
}
