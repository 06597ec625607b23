// Package models defines server-side data models persisted in the database.
package models

import (
	"encoding/json"
	"time"
)

// Record is one synchronized survey document. ClientID is the id the device
// assigned offline; it is the idempotency key for create and the address for
// update and delete.
type Record struct {
	ID        string
	ClientID  string
	DeviceID  string
	Kind      string
	Payload   json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}
