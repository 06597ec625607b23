// Package api is the client's boundary to the survey backend: a transport
// contract for record, blob, and asset operations, plus a concrete HTTP/JSON
// implementation. The package also owns failure classification: callers see
// sentinel errors, never transport details.
package api

import (
	"context"
	"encoding/json"
	"time"
)

// Client is the operation executor the sync layer drains the queue against.
// Record operations are idempotent on the backend, keyed by the client id
// embedded in the payload; blob uploads are idempotent by deterministic
// storage path. Delivery is at-least-once, so both properties are load-bearing.
type Client interface {
	// Ping checks reachability and reports round-trip latency.
	Ping(ctx context.Context) (time.Duration, error)

	// RegisterDevice exchanges an access code for a device id and API token.
	RegisterDevice(ctx context.Context, name, accessCode string) (deviceID, token string, err error)

	// CreateRecord upserts a survey record and returns the backend id.
	CreateRecord(ctx context.Context, kind string, payload json.RawMessage) (remoteID string, err error)

	// UpdateRecord replaces the record addressed by the client id.
	UpdateRecord(ctx context.Context, clientID string, payload json.RawMessage) error

	// DeleteRecord removes the record addressed by the client id.
	DeleteRecord(ctx context.Context, clientID string) error

	// UploadBlob delivers attachment bytes to the storage path and returns
	// the path confirmed by storage.
	UploadBlob(ctx context.Context, path string, data []byte, contentType string) (storagePath string, err error)

	// LinkAsset attaches an uploaded blob to a record.
	LinkAsset(ctx context.Context, remoteRecordID, storagePath string, meta json.RawMessage) (assetID string, err error)
}

// TokenSource supplies the bearer token for outbound requests. The zero
// implementation used before registration returns an empty token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource holding a fixed token.
type StaticToken string

func (s StaticToken) Token(ctx context.Context) (string, error) { return string(s), nil }
