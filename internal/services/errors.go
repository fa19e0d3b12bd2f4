package services

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when no OpenRouter credential was supplied.
var ErrNotConfigured = errors.New("openrouter API key is required")

// ErrInvalidRequest wraps failures to build an outbound request. Nothing was
// sent upstream when it is returned.
var ErrInvalidRequest = errors.New("invalid openrouter request")

// UpstreamHTTPError is a non-2xx reply from the provider.
type UpstreamHTTPError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamHTTPError) Error() string {
	return fmt.Sprintf("openrouter returned %d: %s", e.StatusCode, e.Body)
}

// TransportError is a network-level failure, including timeouts.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("openrouter request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedResponseError means the provider answered 2xx with an unexpected shape.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed openrouter response: %s: %v", e.Reason, e.Err)
	}
	return "malformed openrouter response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
