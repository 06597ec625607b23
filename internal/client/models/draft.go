// Package models defines client-side data models for the SiteSurvey field
// client: survey drafts, binary attachments, and durable sync-queue entries.
package models

import (
	"encoding/json"
	"time"
)

// SyncStatus describes how far a draft has progressed toward the backend.
type SyncStatus string

const (
	SyncStatusUnsynced SyncStatus = "unsynced"
	SyncStatusSyncing  SyncStatus = "syncing"
	SyncStatusSynced   SyncStatus = "synced"
	SyncStatusError    SyncStatus = "error"
)

// Draft is an in-progress survey instance persisted locally while being
// filled out and synced.
type Draft struct {
	// ID is the client-generated identifier, authoritative for all local
	// storage keys for the lifetime of the draft.
	ID string

	// RemoteID is the backend-assigned record id, recorded once known.
	// It never replaces ID as the local key.
	RemoteID string

	// Snapshot is the full serialized form state, nested by survey section.
	Snapshot json.RawMessage

	// SnapshotHash is the SHA-256 of Snapshot, used to skip redundant writes.
	SnapshotHash string

	// SyncStatus tracks reconciliation with the backend.
	SyncStatus SyncStatus

	// UpdatedAt is the last modification time in UTC.
	UpdatedAt time.Time
}
