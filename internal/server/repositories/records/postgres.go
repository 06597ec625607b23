// Package records provides the PostgreSQL-backed repository for synchronized
// survey records.
package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brightfield/sitesurvey/internal/common"
	"github.com/brightfield/sitesurvey/internal/dbx"
	"github.com/brightfield/sitesurvey/internal/server/models"
)

// PostgresRepository implements record storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert inserts the record keyed by client_id, or replaces its payload when
// the same device replays the create. A conflicting row owned by another
// device is left untouched and ErrUnauthorized is returned.
func (r *PostgresRepository) Upsert(ctx context.Context, record *models.Record) (string, error) {
	query := `
		INSERT INTO records (id, client_id, device_id, kind, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (client_id)
		DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = now()
			WHERE records.device_id = EXCLUDED.device_id
		RETURNING id;
	`
	var id string
	err := r.db.QueryRowContext(ctx, query,
		record.ID, record.ClientID, record.DeviceID, record.Kind, record.Payload).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) GetByClientID(ctx context.Context, clientID string) (*models.Record, error) {
	query := `SELECT id, client_id, device_id, kind, payload, created_at, updated_at
		FROM records WHERE client_id = $1;`

	var item models.Record
	err := r.db.QueryRowContext(ctx, query, clientID).Scan(
		&item.ID, &item.ClientID, &item.DeviceID, &item.Kind, &item.Payload,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &item, nil
}

// UpdatePayload replaces the payload of the record owned by deviceID.
func (r *PostgresRepository) UpdatePayload(ctx context.Context, clientID, deviceID string, payload json.RawMessage) error {
	query := `UPDATE records SET payload = $3, updated_at = now()
		WHERE client_id = $1 AND device_id = $2;`

	res, err := r.db.ExecContext(ctx, query, clientID, deviceID, payload)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowAffected(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, clientID, deviceID string) error {
	query := `DELETE FROM records WHERE client_id = $1 AND device_id = $2;`

	res, err := r.db.ExecContext(ctx, query, clientID, deviceID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowAffected(res)
}

func oneRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
