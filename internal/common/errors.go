// Package common defines shared constants and sentinel errors used across
// the client and server layers of SiteSurvey. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Durable-store errors surfaced to the form layer.
	ErrInvalidInput       = errors.New("input is not serializable")
	ErrQuotaExceeded      = errors.New("local storage quota exceeded")
	ErrAttachmentTooLarge = errors.New("attachment exceeds size ceiling")

	// Sync coordination errors.
	ErrSyncInProgress = errors.New("sync already in progress")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
