// Package settings is a small key/value store for device-local state such as
// the device id and the API token.
package settings

import (
	"context"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Well-known keys.
const (
	KeyDeviceID    = "device_id"
	KeyDeviceToken = "device_token"
)
