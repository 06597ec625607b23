package models

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/brightfield/sitesurvey/internal/common"
)

// MarshalSnapshot serializes any form value into the canonical snapshot
// representation. Values json cannot encode (channels, cycles, funcs) are
// reported as common.ErrInvalidInput.
func MarshalSnapshot(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	return b, nil
}

// SnapshotHash returns the hex SHA-256 of a serialized snapshot.
func SnapshotHash(snapshot json.RawMessage) string {
	sum := sha256.Sum256(snapshot)
	return hex.EncodeToString(sum[:])
}

// SnapshotsEqual compares two serialized snapshots byte-wise. Snapshots are
// produced by MarshalSnapshot, so equal form state yields equal bytes.
func SnapshotsEqual(a, b json.RawMessage) bool {
	return bytes.Equal(a, b)
}
