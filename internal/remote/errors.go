// Package remote provides a read-only HTTP client for the upstream catalog
// API with error classification into three failure kinds: rate-limited,
// transiently unavailable, and permanently rejected.
package remote

import (
	"errors"
	"fmt"
)

// Sentinel errors for upstream failure classification.
// Use errors.Is(err, remote.ErrRateLimited) to check.
var (
	// ErrRateLimited means the upstream reported overload, either via HTTP 429
	// or via an error envelope carrying the rate-limit marker. Never retried:
	// hammering an overloaded upstream makes the condition worse.
	ErrRateLimited = errors.New("remote: rate limited")

	// ErrUnavailable means a transient server-side fault (HTTP 5xx or a
	// network error). Safe to retry with backoff.
	ErrUnavailable = errors.New("remote: upstream unavailable")

	// ErrRejected means a permanent client fault (4xx, malformed body).
	// Never retried.
	ErrRejected = errors.New("remote: upstream rejected request")
)

// APIError wraps a sentinel error with the endpoint, HTTP status code, and
// the upstream message body for debugging.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote: %s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}

	return fmt.Sprintf("remote: %s: %s", e.Endpoint, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}
