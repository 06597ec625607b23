package syncqueue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/brightfield/sitesurvey/internal/client/models"
	"github.com/brightfield/sitesurvey/internal/common"
	"github.com/brightfield/sitesurvey/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const entryColumns = `id, kind, target_type, target_id, payload, attachment_id, retry_count, max_retries, status, last_error, created_at`

func (r *SQLiteRepository) Append(ctx context.Context, e *models.SyncEntry) error {
	query := ` INSERT INTO sync_queue (kind, target_type, target_id, payload, attachment_id, retry_count, max_retries, status, last_error, created_at)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		e.Kind, e.TargetType, e.TargetID, []byte(e.Payload), e.AttachmentID,
		e.RetryCount, e.MaxRetries, e.Status, e.LastError, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append sync entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get entry id: %w", err)
	}
	e.ID = id

	return nil
}

func (r *SQLiteRepository) ListPending(ctx context.Context) ([]*models.SyncEntry, error) {
	query := `select ` + entryColumns + ` from sync_queue where status=? order by id`
	rows, err := r.db.QueryContext(ctx, query, models.EntryStatusPending)
	if err != nil {
		return nil, fmt.Errorf("error selecting sync entries: %w", err)
	}
	defer rows.Close()

	return scanAll(rows)
}

func (r *SQLiteRepository) ListFailed(ctx context.Context) ([]*models.SyncEntry, error) {
	query := `select ` + entryColumns + ` from sync_queue where status=? order by id desc`
	rows, err := r.db.QueryContext(ctx, query, models.EntryStatusFailed)
	if err != nil {
		return nil, fmt.Errorf("error selecting failed entries: %w", err)
	}
	defer rows.Close()

	return scanAll(rows)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.SyncEntry, error) {
	query := `select ` + entryColumns + ` from sync_queue where id=?`
	row := r.db.QueryRowContext(ctx, query, id)

	e, err := scanOne(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync entry: %w", err)
	}

	return e, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id int64, patch Patch) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)

	if patch.Status != nil {
		sets = append(sets, "status=?")
		args = append(args, *patch.Status)
	}
	if patch.RetryCount != nil {
		sets = append(sets, "retry_count=?")
		args = append(args, *patch.RetryCount)
	}
	if patch.LastError != nil {
		sets = append(sets, "last_error=?")
		args = append(args, *patch.LastError)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	query := `update sync_queue set ` + strings.Join(sets, ", ") + ` where id=?`
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update sync entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `delete from sync_queue where id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove sync entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *SQLiteRepository) CancelByAttachment(ctx context.Context, attachmentID string, reason string) (int64, error) {
	query := `update sync_queue set status=?, last_error=? where attachment_id=? and status in (?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		models.EntryStatusFailed, reason, attachmentID,
		models.EntryStatusPending, models.EntryStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel entries: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLiteRepository) CancelByTarget(ctx context.Context, targetType, targetID, reason string) (int64, error) {
	query := `update sync_queue set status=?, last_error=? where target_type=? and target_id=? and status in (?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		models.EntryStatusFailed, reason, targetType, targetID,
		models.EntryStatusPending, models.EntryStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel entries: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLiteRepository) ResetProcessing(ctx context.Context) (int64, error) {
	query := `update sync_queue set status=? where status=?`
	result, err := r.db.ExecContext(ctx, query, models.EntryStatusPending, models.EntryStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to reset processing entries: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLiteRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `select count(*) from sync_queue where status=?`, models.EntryStatusPending).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending entries: %w", err)
	}
	return n, nil
}

func scanOne(scan func(dest ...any) error) (*models.SyncEntry, error) {
	e := &models.SyncEntry{}
	var payload []byte
	err := scan(&e.ID, &e.Kind, &e.TargetType, &e.TargetID, &payload, &e.AttachmentID,
		&e.RetryCount, &e.MaxRetries, &e.Status, &e.LastError, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Payload = payload
	return e, nil
}

func scanAll(rows *sql.Rows) ([]*models.SyncEntry, error) {
	var result []*models.SyncEntry

	for rows.Next() {
		e, err := scanOne(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
