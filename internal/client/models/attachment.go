package models

import "time"

// UploadStatus tracks an attachment's delivery to blob storage.
type UploadStatus string

const (
	UploadStatusPending   UploadStatus = "pending"
	UploadStatusCompleted UploadStatus = "completed"
)

// Attachment is a binary object (photo, signature) captured in the field.
// Rows are immutable once stored; replacing a photo creates a new Attachment
// and removes the old one.
type Attachment struct {
	// ID is the client-generated identifier.
	ID string

	// DraftID is a weak reference to the owning draft, so the attachment can
	// be retried even if the draft record mutates.
	DraftID string

	// Section and Field locate the attachment within the form; SubIndex
	// distinguishes repeatable entries such as individual roof faces.
	Section  string
	Field    string
	SubIndex int

	MIMEType string
	Size     int64
	Data     []byte

	UploadStatus UploadStatus
	CreatedAt    time.Time
}

// StoragePath returns the deterministic object key the attachment is
// uploaded under. Re-uploads of the same attachment overwrite in place,
// which keeps blob delivery idempotent.
func (a *Attachment) StoragePath() string {
	return "drafts/" + a.DraftID + "/" + a.Section + "/" + a.Field + "/" + a.ID
}
