// Package observability provides logging, metrics, and distributed tracing
// for the Amber platform core.
//
// # Logging
//
// NewLogger builds a slog.Logger from configuration. TracedLogger adds the
// correlation layer: tenant and document identifiers bound once, trace and
// span identifiers lifted from the OpenTelemetry span in each call's
// context, and redaction of credential-bearing fields at info level and
// above.
//
// # Metrics
//
// MetricsRecorder is the recording interface the rest of the codebase
// depends on. OpenTelemetryMetricsRecorder implements it on the OTel metric
// API with lazily created instruments; export follows whatever meter
// provider the process registers globally, and with none registered every
// instrument is a no-op. NoOpMetricsRecorder discards everything and is the
// default for components constructed without a backend.
//
// # Tracing
//
// InitTracing configures an OTLP gRPC span exporter behind a batching
// provider and registers it globally. Disabled configuration yields a
// provider that records nothing, so lifecycle code never branches. Shut the
// provider down with ShutdownTracing before exit to flush pending spans.
package observability
