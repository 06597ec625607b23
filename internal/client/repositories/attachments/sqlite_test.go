package attachments

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/brightfield/sitesurvey/internal/client/models"
	"github.com/brightfield/sitesurvey/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE attachments (
  id            TEXT PRIMARY KEY,
  draft_id      TEXT NOT NULL,
  section       TEXT NOT NULL,
  field         TEXT NOT NULL,
  sub_index     INTEGER NOT NULL DEFAULT 0,
  mime_type     TEXT NOT NULL,
  size          INTEGER NOT NULL,
  data          BLOB NOT NULL,
  upload_status TEXT NOT NULL DEFAULT 'pending',
  created_at    TIMESTAMP NOT NULL
);
`)
	require.NoError(t, err)

	return db
}

func newAttachment(id, draftID, section, field string, subIndex int, data []byte) *models.Attachment {
	return &models.Attachment{
		ID:           id,
		DraftID:      draftID,
		Section:      section,
		Field:        field,
		SubIndex:     subIndex,
		MIMEType:     "image/jpeg",
		Size:         int64(len(data)),
		Data:         data,
		UploadStatus: models.UploadStatusPending,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestInsertAndGetByID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	a := newAttachment("a1", "d1", "roof", "photo", 0, []byte("jpeg"))
	require.NoError(t, r.Insert(ctx, a))

	got, err := r.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "d1", got.DraftID)
	assert.Equal(t, []byte("jpeg"), got.Data)
	assert.Equal(t, models.UploadStatusPending, got.UploadStatus)

	_, err = r.GetByID(ctx, "missing")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestListByField_OrderedBySubIndex(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newAttachment("a2", "d1", "roof", "face_photo", 1, []byte("b"))))
	require.NoError(t, r.Insert(ctx, newAttachment("a1", "d1", "roof", "face_photo", 0, []byte("a"))))
	require.NoError(t, r.Insert(ctx, newAttachment("a3", "d1", "electrical", "panel_photo", 0, []byte("c"))))

	list, err := r.ListByField(ctx, "d1", "roof", "face_photo")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a1", list[0].ID)
	assert.Equal(t, "a2", list[1].ID)
	assert.Equal(t, []byte("a"), list[0].Data)
}

func TestListByDraft_OmitsData(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newAttachment("a1", "d1", "roof", "photo", 0, []byte("bytes"))))

	list, err := r.ListByDraft(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Data)
	assert.Equal(t, int64(5), list[0].Size)
}

func TestMarkUploaded(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newAttachment("a1", "d1", "roof", "photo", 0, []byte("x"))))
	require.NoError(t, r.MarkUploaded(ctx, "a1"))

	got, err := r.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusCompleted, got.UploadStatus)

	require.ErrorIs(t, r.MarkUploaded(ctx, "missing"), common.ErrNotFound)
}

func TestDeleteByID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newAttachment("a1", "d1", "roof", "photo", 0, []byte("x"))))
	require.NoError(t, r.DeleteByID(ctx, "a1"))

	_, err := r.GetByID(ctx, "a1")
	require.ErrorIs(t, err, common.ErrNotFound)
}
