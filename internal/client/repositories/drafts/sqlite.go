package drafts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/brightfield/sitesurvey/internal/client/models"
	"github.com/brightfield/sitesurvey/internal/common"
	"github.com/brightfield/sitesurvey/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, d *models.Draft) error {
	query := ` INSERT INTO drafts (id, remote_id, snapshot, snapshot_hash, sync_status, updated_at)
			values (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET snapshot = excluded.snapshot,
				snapshot_hash = excluded.snapshot_hash,
				sync_status = excluded.sync_status,
				updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.RemoteID, []byte(d.Snapshot), d.SnapshotHash, d.SyncStatus, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert draft: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Draft, error) {
	query := `select id, remote_id, snapshot, snapshot_hash, sync_status, updated_at from drafts where id=?`
	row := r.db.QueryRowContext(ctx, query, id)

	d := &models.Draft{}
	var snapshot []byte
	err := row.Scan(&d.ID, &d.RemoteID, &snapshot, &d.SnapshotHash, &d.SyncStatus, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	d.Snapshot = snapshot

	return d, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.Draft, error) {
	query := `select id, remote_id, snapshot, snapshot_hash, sync_status, updated_at from drafts order by updated_at desc`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error selecting drafts: %w", err)
	}
	defer rows.Close()

	var result []*models.Draft

	for rows.Next() {
		d := &models.Draft{}
		var snapshot []byte
		if err := rows.Scan(&d.ID, &d.RemoteID, &snapshot, &d.SnapshotHash, &d.SyncStatus, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Snapshot = snapshot
		result = append(result, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *SQLiteRepository) SetSyncStatus(ctx context.Context, id string, status models.SyncStatus) error {
	result, err := r.db.ExecContext(ctx, `update drafts set sync_status=? where id=?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}
	return oneRowAffected(result)
}

func (r *SQLiteRepository) SetRemoteID(ctx context.Context, id string, remoteID string) error {
	result, err := r.db.ExecContext(ctx, `update drafts set remote_id=? where id=?`, remoteID, id)
	if err != nil {
		return fmt.Errorf("failed to set remote id: %w", err)
	}
	return oneRowAffected(result)
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `delete from drafts where id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return oneRowAffected(result)
}

func oneRowAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}
