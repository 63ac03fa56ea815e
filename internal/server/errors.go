package server

import "github.com/danve93/Amber-sub001/internal/types"

// HTTP server error codes
const (
	ErrCodeServerInvalidConfig types.ErrorCode = "SERVER_INVALID_CONFIG"
	ErrCodeServerListenFailed  types.ErrorCode = "SERVER_LISTEN_FAILED"
	ErrCodeServerShutdown      types.ErrorCode = "SERVER_SHUTDOWN_FAILED"

	// ErrCodeRequestInvalid covers malformed request bodies and parameters.
	// It only ever travels inside HTTP error responses.
	ErrCodeRequestInvalid types.ErrorCode = "REQUEST_INVALID"
)
