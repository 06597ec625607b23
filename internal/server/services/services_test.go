package services

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/brightfield/sitesurvey/internal/common"
	"github.com/brightfield/sitesurvey/internal/server/models"
	"github.com/brightfield/sitesurvey/internal/server/repositories/assets"
	"github.com/brightfield/sitesurvey/internal/server/repositories/devices"
	"github.com/brightfield/sitesurvey/internal/server/repositories/records"
)

// fakeRepoManager backs the services with in-memory maps for tests.
type fakeRepoManager struct {
	devices *fakeDeviceRepo
	records *fakeRecordRepo
	assets  *fakeAssetRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		devices: &fakeDeviceRepo{items: map[string]*models.Device{}},
		records: &fakeRecordRepo{items: map[string]*models.Record{}},
		assets:  &fakeAssetRepo{byPath: map[string]*models.Asset{}},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context) error { return nil }
func (m *fakeRepoManager) Conn() *sql.DB                       { return nil }
func (m *fakeRepoManager) Close() error                        { return nil }
func (m *fakeRepoManager) Devices() devices.Repository         { return m.devices }
func (m *fakeRepoManager) Records() records.Repository         { return m.records }
func (m *fakeRepoManager) Assets() assets.Repository           { return m.assets }

type fakeDeviceRepo struct {
	items map[string]*models.Device
}

func (r *fakeDeviceRepo) Insert(ctx context.Context, d *models.Device) error {
	r.items[d.ID] = d
	return nil
}

func (r *fakeDeviceRepo) GetByID(ctx context.Context, id string) (*models.Device, error) {
	d, ok := r.items[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return d, nil
}

type fakeRecordRepo struct {
	items map[string]*models.Record // keyed by client id
}

func (r *fakeRecordRepo) Upsert(ctx context.Context, rec *models.Record) (string, error) {
	if existing, ok := r.items[rec.ClientID]; ok {
		if existing.DeviceID != rec.DeviceID {
			return "", common.ErrUnauthorized
		}
		existing.Payload = rec.Payload
		return existing.ID, nil
	}
	r.items[rec.ClientID] = rec
	return rec.ID, nil
}

func (r *fakeRecordRepo) GetByClientID(ctx context.Context, clientID string) (*models.Record, error) {
	rec, ok := r.items[clientID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return rec, nil
}

func (r *fakeRecordRepo) UpdatePayload(ctx context.Context, clientID, deviceID string, payload json.RawMessage) error {
	rec, ok := r.items[clientID]
	if !ok || rec.DeviceID != deviceID {
		return common.ErrNotFound
	}
	rec.Payload = payload
	return nil
}

func (r *fakeRecordRepo) Delete(ctx context.Context, clientID, deviceID string) error {
	rec, ok := r.items[clientID]
	if !ok || rec.DeviceID != deviceID {
		return common.ErrNotFound
	}
	delete(r.items, clientID)
	return nil
}

type fakeAssetRepo struct {
	byPath map[string]*models.Asset
}

func (r *fakeAssetRepo) Upsert(ctx context.Context, a *models.Asset) (string, error) {
	if existing, ok := r.byPath[a.StoragePath]; ok {
		existing.Metadata = a.Metadata
		return existing.ID, nil
	}
	r.byPath[a.StoragePath] = a
	return a.ID, nil
}

func (r *fakeAssetRepo) ListByRecord(ctx context.Context, recordID string) ([]*models.Asset, error) {
	var out []*models.Asset
	for _, a := range r.byPath {
		if a.RecordID == recordID {
			out = append(out, a)
		}
	}
	return out, nil
}
