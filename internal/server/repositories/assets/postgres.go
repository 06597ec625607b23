// Package assets provides the PostgreSQL-backed repository for photo blobs
// linked to survey records.
package assets

import (
	"context"
	"fmt"

	"github.com/brightfield/sitesurvey/internal/dbx"
	"github.com/brightfield/sitesurvey/internal/server/models"
)

// PostgresRepository implements asset storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, asset *models.Asset) (string, error) {
	query := `
		INSERT INTO assets (id, record_id, device_id, storage_path, metadata)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (storage_path)
		DO UPDATE SET metadata = EXCLUDED.metadata
		RETURNING id;
	`
	var id string
	err := r.db.QueryRowContext(ctx, query,
		asset.ID, asset.RecordID, asset.DeviceID, asset.StoragePath, asset.Metadata).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) ListByRecord(ctx context.Context, recordID string) ([]*models.Asset, error) {
	query := `SELECT id, record_id, device_id, storage_path, metadata, created_at
		FROM assets WHERE record_id = $1 ORDER BY created_at;`

	rows, err := r.db.QueryContext(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Asset
	for rows.Next() {
		var item models.Asset
		if err := rows.Scan(
			&item.ID, &item.RecordID, &item.DeviceID, &item.StoragePath,
			&item.Metadata, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
