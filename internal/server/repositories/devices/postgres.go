// Package devices provides the PostgreSQL-backed repository for enrolled
// field devices.
package devices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/brightfield/sitesurvey/internal/common"
	"github.com/brightfield/sitesurvey/internal/dbx"
	"github.com/brightfield/sitesurvey/internal/server/models"
)

// PostgresRepository implements device storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, device *models.Device) error {
	query := `INSERT INTO devices (id, name) VALUES ($1, $2);`
	if _, err := r.db.ExecContext(ctx, query, device.ID, device.Name); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Device, error) {
	query := `SELECT id, name, created_at FROM devices WHERE id = $1;`

	var item models.Device
	err := r.db.QueryRowContext(ctx, query, id).Scan(&item.ID, &item.Name, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &item, nil
}
