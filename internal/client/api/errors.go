package api

import (
	"errors"

	"github.com/brightfield/sitesurvey/internal/common"
)

var (
	// ErrUnavailable marks retryable failures: the server is unreachable,
	// timing out, rate limiting, or failing internally.
	ErrUnavailable = errors.New("server unavailable")

	// ErrRejected marks permanent failures: the backend refused the request
	// and a retry with the same payload cannot succeed.
	ErrRejected = errors.New("request rejected")

	// ErrUnauthorized marks a missing or expired device token.
	ErrUnauthorized = errors.New("unauthorized")
)

// IsPermanent reports whether err is a terminal, non-retryable outcome.
// Anything else, including ambiguous failures such as a connection dropped
// mid-request, is treated as retryable, favoring at-least-once delivery
// over data loss.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrRejected) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, common.ErrNotFound)
}
