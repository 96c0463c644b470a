package kms

import (
	"errors"
	"fmt"
)

// ErrorCode represents specific error types in the kms package.
type ErrorCode string

// ErrorCode constants for display errors.
const (
	ErrResourceUnavailable   ErrorCode = "RESOURCE_UNAVAILABLE"
	ErrNegotiationFailed     ErrorCode = "NEGOTIATION_FAILED"
	ErrCommitFailed          ErrorCode = "COMMIT_FAILED"
	ErrCapabilityQueryFailed ErrorCode = "CAPABILITY_QUERY_FAILED"
	ErrInvalidFrame          ErrorCode = "INVALID_FRAME"
	ErrSessionClosed         ErrorCode = "SESSION_CLOSED"
)

// Error represents an error in the kms package.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
	Cause   error          `json:"cause,omitempty"`
}

func newError(code ErrorCode, message string, cause error, context map[string]any) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: context,
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HasCode checks if the error matches a specific code.
func (e *Error) HasCode(code ErrorCode) bool {
	return e.Code == code
}

// IsCode reports whether err or any error it wraps is a kms error with code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.HasCode(code)
	}
	return false
}
