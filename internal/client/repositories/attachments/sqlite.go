package attachments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *SQLiteRepository) Insert(ctx context.Context, a *models.Attachment) error {
	query := ` INSERT INTO attachments (id, draft_id, section, field, sub_index, mime_type, size, data, upload_status, created_at)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.DraftID, a.Section, a.Field, a.SubIndex, a.MIMEType, a.Size, a.Data, a.UploadStatus, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert attachment: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Attachment, error) {
	query := `select id, draft_id, section, field, sub_index, mime_type, size, data, upload_status, created_at
			from attachments where id=?`
	row := r.db.QueryRowContext(ctx, query, id)

	a := &models.Attachment{}
	err := row.Scan(&a.ID, &a.DraftID, &a.Section, &a.Field, &a.SubIndex, &a.MIMEType, &a.Size, &a.Data, &a.UploadStatus, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}

	return a, nil
}

func (r *SQLiteRepository) ListByField(ctx context.Context, draftID, section, field string) ([]*models.Attachment, error) {
	query := `select id, draft_id, section, field, sub_index, mime_type, size, data, upload_status, created_at
			from attachments where draft_id=? and section=? and field=?
			order by sub_index, created_at`
	rows, err := r.db.QueryContext(ctx, query, draftID, section, field)
	if err != nil {
		return nil, fmt.Errorf("error selecting attachments: %w", err)
	}
	defer rows.Close()

	return scanAll(rows, true)
}

func (r *SQLiteRepository) ListByDraft(ctx context.Context, draftID string) ([]*models.Attachment, error) {
	query := `select id, draft_id, section, field, sub_index, mime_type, size, upload_status, created_at
			from attachments where draft_id=? order by created_at`
	rows, err := r.db.QueryContext(ctx, query, draftID)
	if err != nil {
		return nil, fmt.Errorf("error selecting attachments: %w", err)
	}
	defer rows.Close()

	return scanAll(rows, false)
}

func (r *SQLiteRepository) MarkUploaded(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `update attachments set upload_status=? where id=?`, models.UploadStatusCompleted, id)
	if err != nil {
		return fmt.Errorf("failed to mark attachment uploaded: %w", err)
	}
	return oneRowAffected(result)
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `delete from attachments where id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return oneRowAffected(result)
}

func scanAll(rows *sql.Rows, withData bool) ([]*models.Attachment, error) {
	var result []*models.Attachment

	for rows.Next() {
		a := &models.Attachment{}
		var err error
		if withData {
			err = rows.Scan(&a.ID, &a.DraftID, &a.Section, &a.Field, &a.SubIndex, &a.MIMEType, &a.Size, &a.Data, &a.UploadStatus, &a.CreatedAt)
		} else {
			err = rows.Scan(&a.ID, &a.DraftID, &a.Section, &a.Field, &a.SubIndex, &a.MIMEType, &a.Size, &a.UploadStatus, &a.CreatedAt)
		}
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
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
