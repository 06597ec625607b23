package models

import (
	"encoding/json"
	"time"
)

// Asset describes server-side metadata for a photo blob linked to a record.
// The bytes themselves live in object storage under StoragePath, so linking
// the same path twice is a no-op.
type Asset struct {
	ID          string
	RecordID    string
	DeviceID    string
	StoragePath string
	Metadata    json.RawMessage
	CreatedAt   time.Time
}
