package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/brightfield/sitesurvey/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCreate_IdempotentByClientID(t *testing.T) {
	repos := newFakeRepoManager()
	svc := NewRecordService(repos)
	ctx := context.Background()

	payload := json.RawMessage(`{"client_id":"d1","snapshot":{"roof":{"pitch":30}}}`)

	id1, err := svc.Create(ctx, "dev-1", "survey", payload)
	require.NoError(t, err)

	// A replay of the same create converges on the same record.
	id2, err := svc.Create(ctx, "dev-1", "survey", payload)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Len(t, repos.records.items, 1)
}

func TestRecordCreate_RejectsPayloadWithoutClientID(t *testing.T) {
	svc := NewRecordService(newFakeRepoManager())

	_, err := svc.Create(context.Background(), "dev-1", "survey", json.RawMessage(`{"roof":"tile"}`))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRecordCreate_ConflictAcrossDevices(t *testing.T) {
	repos := newFakeRepoManager()
	svc := NewRecordService(repos)
	ctx := context.Background()

	payload := json.RawMessage(`{"client_id":"d1"}`)

	_, err := svc.Create(ctx, "dev-1", "survey", payload)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "dev-2", "survey", payload)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestRecordUpdateAndDelete_ScopedToOwner(t *testing.T) {
	repos := newFakeRepoManager()
	svc := NewRecordService(repos)
	ctx := context.Background()

	_, err := svc.Create(ctx, "dev-1", "survey", json.RawMessage(`{"client_id":"d1"}`))
	require.NoError(t, err)

	err = svc.Update(ctx, "dev-2", "d1", json.RawMessage(`{"client_id":"d1","hacked":true}`))
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, svc.Update(ctx, "dev-1", "d1", json.RawMessage(`{"client_id":"d1","v":2}`)))
	require.NoError(t, svc.Delete(ctx, "dev-1", "d1"))

	err = svc.Delete(ctx, "dev-1", "d1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestLinkAsset_ScopesPathAndDeduplicates(t *testing.T) {
	repos := newFakeRepoManager()
	svc := NewRecordService(repos)
	ctx := context.Background()

	id1, err := svc.LinkAsset(ctx, "dev-1", "rec-1", "drafts/d1/roof/photos/a1", json.RawMessage(`{"section":"roof"}`))
	require.NoError(t, err)

	a, ok := repos.assets.byPath["devices/dev-1/drafts/d1/roof/photos/a1"]
	require.True(t, ok, "asset stored under the device-scoped key")
	assert.Equal(t, "rec-1", a.RecordID)

	// Replayed link returns the same asset.
	id2, err := svc.LinkAsset(ctx, "dev-1", "rec-1", "drafts/d1/roof/photos/a1", json.RawMessage(`{"section":"roof"}`))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestLinkAsset_RejectsEscapingPath(t *testing.T) {
	svc := NewRecordService(newFakeRepoManager())

	_, err := svc.LinkAsset(context.Background(), "dev-1", "rec-1", "../other-device/blob", nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
