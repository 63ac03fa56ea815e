package types

import (
	"errors"
	"fmt"
)

// ErrorCode namespaces platform errors. The prefix carries meaning: the CLI
// buckets codes into exit codes by it, so new codes keep the
// SUBSYSTEM_DETAIL shape.
type ErrorCode string

const (
	// Configuration
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	CONFIG_NOT_FOUND         ErrorCode = "CONFIG_NOT_FOUND"

	// Status store
	DB_OPEN_FAILED      ErrorCode = "DB_OPEN_FAILED"
	DB_MIGRATION_FAILED ErrorCode = "DB_MIGRATION_FAILED"
	DB_QUERY_FAILED     ErrorCode = "DB_QUERY_FAILED"
	DB_CONNECTION_LOST  ErrorCode = "DB_CONNECTION_LOST"

	// Documents
	DOCUMENT_NOT_FOUND      ErrorCode = "DOCUMENT_NOT_FOUND"
	DOCUMENT_INVALID        ErrorCode = "DOCUMENT_INVALID"
	DOCUMENT_INVALID_STATUS ErrorCode = "DOCUMENT_INVALID_STATUS"

	// Bootstrap
	INIT_CONFIG_FAILED    ErrorCode = "INIT_CONFIG_FAILED"
	INIT_DB_FAILED        ErrorCode = "INIT_DB_FAILED"
	INIT_TELEMETRY_FAILED ErrorCode = "INIT_TELEMETRY_FAILED"

	INTERNAL_ERROR ErrorCode = "INTERNAL_ERROR"
)

// AmberError is the error type that crosses package boundaries: a stable
// code for programmatic handling, a message for humans, a retryability hint
// for callers that can back off, and an optional cause for the chain.
type AmberError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

func (e *AmberError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AmberError) Unwrap() error { return e.Cause }

// Is matches by code alone, so errors.Is(err, &AmberError{Code: X}) acts as
// a code check regardless of message.
func (e *AmberError) Is(target error) bool {
	var other *AmberError
	return errors.As(target, &other) && e.Code == other.Code
}

// NewError returns a non-retryable error with no cause.
func NewError(code ErrorCode, message string) *AmberError {
	return &AmberError{Code: code, Message: message}
}

// NewRetryableError marks the error as transient; callers may back off and
// try again.
func NewRetryableError(code ErrorCode, message string) *AmberError {
	return &AmberError{Code: code, Message: message, Retryable: true}
}

// WrapError attaches a code and message to an underlying cause.
func WrapError(code ErrorCode, message string, cause error) *AmberError {
	return &AmberError{Code: code, Message: message, Cause: cause}
}

// WrapRetryableError wraps a transient failure such as a timeout or a
// dropped connection.
func WrapRetryableError(code ErrorCode, message string, cause error) *AmberError {
	return &AmberError{Code: code, Message: message, Retryable: true, Cause: cause}
}

// CodeOf extracts the code from err or anything it wraps. The second return
// is false when no AmberError is in the chain; the code is then
// INTERNAL_ERROR so callers can use it unconditionally.
func CodeOf(err error) (ErrorCode, bool) {
	var amberErr *AmberError
	if errors.As(err, &amberErr) {
		return amberErr.Code, true
	}
	return INTERNAL_ERROR, false
}

// IsRetryable reports whether err is, or wraps, a retryable AmberError.
func IsRetryable(err error) bool {
	var amberErr *AmberError
	return errors.As(err, &amberErr) && amberErr.Retryable
}
