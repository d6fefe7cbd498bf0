package sdk

import (
	"errors"
	"fmt"
)

// Sentinel errors for transport-level reporting.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrOffline      = errors.New("offline")
	ErrNoWallet     = errors.New("no wallet connected")
)

// ErrorBody is the JSON error document returned by the offering service.
type ErrorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// RemoteError wraps non-specific remote errors with status code and optional request ID.
type RemoteError struct {
	StatusCode int
	Remote     ErrorBody
}

func (e RemoteError) Error() string {
	if e.Remote.RequestID != "" {
		return fmt.Sprintf("remote error %d (%s): %s [request_id=%s]", e.StatusCode, e.Remote.Error, e.Remote.Message, e.Remote.RequestID)
	}
	if e.Remote.Error != "" {
		return fmt.Sprintf("remote error %d (%s): %s", e.StatusCode, e.Remote.Error, e.Remote.Message)
	}
	return fmt.Sprintf("remote error %d", e.StatusCode)
}
