package apperrors

import (
	"errors"
	"fmt"
)

// Code classifies a failure so callers can map it without string matching.
type Code string

const (
	CodeNotFound          Code = "not_found"
	CodeInvalidInput      Code = "invalid_input"
	CodeUnauthorized      Code = "unauthorized"
	CodeInvalidState      Code = "invalid_state_transition"
	CodeInsufficientFunds Code = "insufficient_funds"
	CodeInternal          Code = "internal"
)

// Error is the typed failure every component operation returns. Operations
// are all-or-nothing: an Error means no state was committed.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Helper constructors

func NotFound(format string, args ...any) error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...any) error {
	return &Error{Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) error {
	return &Error{Code: CodeUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) error {
	return &Error{Code: CodeInvalidState, Message: fmt.Sprintf(format, args...)}
}

func InsufficientFunds(format string, args ...any) error {
	return &Error{Code: CodeInsufficientFunds, Message: fmt.Sprintf(format, args...)}
}

func Internal(format string, args ...any) error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the error code, defaulting to CodeInternal for
// unclassified failures (storage, queue, encoding).
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
