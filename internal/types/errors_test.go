package types

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// The CLI buckets codes into exit codes by prefix, so every code must keep
// its subsystem namespace.
func TestErrorCode_Namespaces(t *testing.T) {
	byPrefix := map[string][]ErrorCode{
		"CONFIG_":   {CONFIG_LOAD_FAILED, CONFIG_PARSE_FAILED, CONFIG_VALIDATION_FAILED, CONFIG_NOT_FOUND},
		"DB_":       {DB_OPEN_FAILED, DB_MIGRATION_FAILED, DB_QUERY_FAILED, DB_CONNECTION_LOST},
		"DOCUMENT_": {DOCUMENT_NOT_FOUND, DOCUMENT_INVALID, DOCUMENT_INVALID_STATUS},
		"INIT_":     {INIT_CONFIG_FAILED, INIT_DB_FAILED, INIT_TELEMETRY_FAILED},
	}

	for prefix, codes := range byPrefix {
		for _, code := range codes {
			if !strings.HasPrefix(string(code), prefix) {
				t.Errorf("code %s escaped its %s namespace", code, prefix)
			}
		}
	}
}

func TestAmberError_Error(t *testing.T) {
	plain := NewError(CONFIG_LOAD_FAILED, "failed to load configuration")
	if got := plain.Error(); got != "[CONFIG_LOAD_FAILED] failed to load configuration" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := WrapError(DB_QUERY_FAILED, "query execution failed", errors.New("connection timeout"))
	if got := wrapped.Error(); got != "[DB_QUERY_FAILED] query execution failed: connection timeout" {
		t.Errorf("Error() = %q", got)
	}
}

func TestAmberError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := WrapError(DB_QUERY_FAILED, "insert failed", cause)

	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if got := NewError(CONFIG_NOT_FOUND, "no config file").Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestAmberError_IsMatchesByCode(t *testing.T) {
	err := NewError(DOCUMENT_NOT_FOUND, "no such document")

	if !errors.Is(err, NewError(DOCUMENT_NOT_FOUND, "different message")) {
		t.Error("errors with the same code should match")
	}
	if errors.Is(err, NewError(DOCUMENT_INVALID, "no such document")) {
		t.Error("errors with different codes should not match")
	}
	if errors.Is(err, errors.New("plain")) {
		t.Error("plain errors should not match")
	}

	outer := fmt.Errorf("listing documents: %w", err)
	if !errors.Is(outer, &AmberError{Code: DOCUMENT_NOT_FOUND}) {
		t.Error("errors.Is should match the code through fmt.Errorf wrapping")
	}
}

func TestCodeOf(t *testing.T) {
	if code, ok := CodeOf(NewError(DOCUMENT_NOT_FOUND, "gone")); !ok || code != DOCUMENT_NOT_FOUND {
		t.Errorf("CodeOf(direct) = (%v, %v)", code, ok)
	}

	deep := fmt.Errorf("outer: %w", NewError(DB_OPEN_FAILED, "locked"))
	if code, ok := CodeOf(deep); !ok || code != DB_OPEN_FAILED {
		t.Errorf("CodeOf(wrapped) = (%v, %v)", code, ok)
	}

	if code, ok := CodeOf(errors.New("plain")); ok || code != INTERNAL_ERROR {
		t.Errorf("CodeOf(plain) = (%v, %v), want (INTERNAL_ERROR, false)", code, ok)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(NewError(DB_QUERY_FAILED, "x")) {
		t.Error("NewError should not be retryable")
	}
	if !IsRetryable(NewRetryableError(DB_CONNECTION_LOST, "x")) {
		t.Error("NewRetryableError should be retryable")
	}
	if !IsRetryable(fmt.Errorf("outer: %w", WrapRetryableError(DB_CONNECTION_LOST, "x", errors.New("y")))) {
		t.Error("retryability should survive wrapping")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors are not retryable")
	}
}
