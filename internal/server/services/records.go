package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brightfield/sitesurvey/internal/common"
	"github.com/brightfield/sitesurvey/internal/server/db"
	"github.com/brightfield/sitesurvey/internal/server/models"
	"github.com/google/uuid"
)

// RecordService owns the synchronized survey records. All mutations are
// idempotent: replays from an at-least-once client converge on the same row.
type RecordService struct {
	repos db.RepositoryManager
}

func NewRecordService(repos db.RepositoryManager) *RecordService {
	return &RecordService{repos: repos}
}

// recordPayload is the slice of the client payload the service needs; the
// rest is stored opaquely.
type recordPayload struct {
	ClientID string `json:"client_id"`
}

// Create upserts a record by the client-assigned id and returns the server
// record id. A replayed create from the same device returns the existing id.
func (s *RecordService) Create(ctx context.Context, deviceID, kind string, payload json.RawMessage) (string, error) {
	var p recordPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.ClientID == "" {
		return "", fmt.Errorf("%w: payload must carry client_id", common.ErrInvalidInput)
	}

	id, err := s.repos.Records().Upsert(ctx, &models.Record{
		ID:       uuid.NewString(),
		ClientID: p.ClientID,
		DeviceID: deviceID,
		Kind:     kind,
		Payload:  payload,
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Update replaces the payload of the record addressed by clientID.
func (s *RecordService) Update(ctx context.Context, deviceID, clientID string, payload json.RawMessage) error {
	return s.repos.Records().UpdatePayload(ctx, clientID, deviceID, payload)
}

// Delete removes the record addressed by clientID. Deleting a record that is
// already gone is not an error for the caller; the handler maps ErrNotFound
// to 404 and the client treats that as success.
func (s *RecordService) Delete(ctx context.Context, deviceID, clientID string) error {
	return s.repos.Records().Delete(ctx, clientID, deviceID)
}

// LinkAsset attaches an uploaded blob to a record. The record id here is the
// server id returned by Create.
func (s *RecordService) LinkAsset(ctx context.Context, deviceID, recordID, storagePath string, meta json.RawMessage) (string, error) {
	key, err := ScopeStorageKey(deviceID, storagePath)
	if err != nil {
		return "", err
	}

	return s.repos.Assets().Upsert(ctx, &models.Asset{
		ID:          uuid.NewString(),
		RecordID:    recordID,
		DeviceID:    deviceID,
		StoragePath: key,
		Metadata:    meta,
	})
}

// GetForDevice fetches a record and enforces ownership.
func (s *RecordService) GetForDevice(ctx context.Context, deviceID, clientID string) (*models.Record, error) {
	record, err := s.repos.Records().GetByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if record.DeviceID != deviceID {
		return nil, fmt.Errorf("%w: record owned by another device", common.ErrUnauthorized)
	}
	return record, nil
}
