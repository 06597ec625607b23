package models

import (
	"encoding/json"
	"time"
)

// OperationKind is the type of mutation a sync-queue entry owes the backend.
type OperationKind string

const (
	OpCreate OperationKind = "create"
	OpUpdate OperationKind = "update"
	OpDelete OperationKind = "delete"
	OpUpload OperationKind = "upload"
	OpLink   OperationKind = "link"
)

// EntryStatus is the lifecycle state of a sync-queue entry.
type EntryStatus string

const (
	EntryStatusPending    EntryStatus = "pending"
	EntryStatusProcessing EntryStatus = "processing"
	EntryStatusCompleted  EntryStatus = "completed"
	// EntryStatusFailed is terminal: the entry is retained as a dead letter
	// and never retried automatically.
	EntryStatusFailed EntryStatus = "failed"
)

// DefaultMaxRetries bounds automatic retries of a single entry.
const DefaultMaxRetries = 3

// SyncEntry is one durable pending mutation addressed to the backend.
// The payload is self-contained so the entry can be replayed verbatim after
// a process restart.
type SyncEntry struct {
	// ID is assigned by the local store, monotonically increasing; it defines
	// FIFO drain order.
	ID int64

	Kind OperationKind

	// TargetType and TargetID describe the logical record the entry mutates,
	// e.g. ("survey", draft id). Entries sharing a target drain in creation
	// order.
	TargetType string
	TargetID   string

	// Payload carries the data to send. Upload entries leave it empty and
	// reference the blob through AttachmentID instead.
	Payload      json.RawMessage
	AttachmentID string

	RetryCount int
	MaxRetries int
	Status     EntryStatus
	LastError  string
	CreatedAt  time.Time
}

// Retryable reports whether the entry has retry budget left.
func (e *SyncEntry) Retryable() bool {
	return e.RetryCount < e.MaxRetries
}

// TargetKey returns the logical-target identity used for ordering checks.
func (e *SyncEntry) TargetKey() string {
	return e.TargetType + "/" + e.TargetID
}
