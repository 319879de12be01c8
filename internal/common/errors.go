// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound = errors.New("not found")

	// API errors.
	ErrProtocol         = errors.New("protocol error")
	ErrNoGeocodeResult  = errors.New("no geocode result")
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// HTTPStatusError reports a non-2xx response from an upstream API.
type HTTPStatusError struct {
	URL        string
	Body       string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// ProtocolError carries the error messages of a GraphQL response.
type ProtocolError struct {
	Messages []string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%v: %v", ErrProtocol, e.Messages)
}

func (e *ProtocolError) Unwrap() error {
	return ErrProtocol
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Cancellation ends the run, it is never retried
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
