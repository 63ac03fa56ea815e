package observability

import "github.com/danve93/Amber-sub001/internal/types"

// Error codes for observability setup failures.
const (
	// ErrCodeInvalidTelemetryConfig indicates a malformed logging or tracing
	// configuration.
	ErrCodeInvalidTelemetryConfig types.ErrorCode = "OBS_INVALID_CONFIG"

	// ErrCodeExporterConnection indicates the trace exporter could not be
	// created or could not reach its endpoint.
	ErrCodeExporterConnection types.ErrorCode = "OBS_EXPORTER_CONNECTION"

	// ErrCodeShutdownTimeout indicates telemetry shutdown did not complete
	// before its context expired.
	ErrCodeShutdownTimeout types.ErrorCode = "OBS_SHUTDOWN_TIMEOUT"
)
