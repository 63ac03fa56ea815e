package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/danve93/Amber-sub001/internal/types"
)

// NewLogger builds a slog.Logger from the logging configuration. Output is
// stdout, stderr, or an append-opened file path.
func NewLogger(cfg LoggingConfig) (*slog.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Validate constrains Level to slog's four names, which UnmarshalText
	// parses case-insensitively.
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, types.WrapError(ErrCodeInvalidTelemetryConfig,
			fmt.Sprintf("cannot parse log level %s", cfg.Level), err)
	}

	var w io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, types.WrapError(ErrCodeInvalidTelemetryConfig,
				fmt.Sprintf("cannot open log output %s", cfg.Output), err)
		}
		w = f
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = NewTextHandler(w, level)
	} else {
		handler = NewJSONHandler(w, level)
	}

	return slog.New(handler), nil
}

// NewJSONHandler creates a JSON log handler with the specified output and
// level. JSON format is the production default.
func NewJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// NewTextHandler creates a human-readable text log handler with the
// specified output and level.
func NewTextHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// TracedLogger is a structured logger with automatic trace correlation. It
// wraps slog.Logger, stamps every entry with tenant and document context
// when bound, and lifts trace_id/span_id from the OpenTelemetry span in the
// call context. Values under sensitive keys are redacted at info level and
// above.
type TracedLogger struct {
	logger          *slog.Logger
	tenantID        string
	documentID      string
	redactSensitive bool
}

// NewTracedLogger creates a TracedLogger over the given handler.
func NewTracedLogger(handler slog.Handler) *TracedLogger {
	return &TracedLogger{
		logger:          slog.New(handler),
		redactSensitive: true,
	}
}

// WithTenant returns a logger that stamps tenant_id on every entry.
func (l *TracedLogger) WithTenant(tenantID string) *TracedLogger {
	clone := *l
	clone.tenantID = tenantID
	return &clone
}

// WithDocument returns a logger that stamps document_id on every entry.
func (l *TracedLogger) WithDocument(id types.ID) *TracedLogger {
	clone := *l
	clone.documentID = id.String()
	return &clone
}

// Debug, Info, Warn, and Error log with trace correlation. Debug entries
// skip redaction so local troubleshooting sees full values.
func (l *TracedLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}

func (l *TracedLogger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args...)
}

func (l *TracedLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args...)
}

func (l *TracedLogger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, args...)
}

func (l *TracedLogger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if l.redactSensitive && level >= slog.LevelInfo {
		args = redactSensitiveData(args)
	}
	l.WithContext(ctx).Log(ctx, level, msg, args...)
}

// WithContext returns a slog.Logger carrying the bound correlation fields
// plus trace_id and span_id extracted from the span in ctx, when one is
// recording.
func (l *TracedLogger) WithContext(ctx context.Context) *slog.Logger {
	logger := l.logger

	if l.tenantID != "" {
		logger = logger.With(slog.String("tenant_id", l.tenantID))
	}
	if l.documentID != "" {
		logger = logger.With(slog.String("document_id", l.documentID))
	}

	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if spanCtx.IsValid() {
		logger = logger.With(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}

	return logger
}

// sensitiveFields are key names whose values never belong in logs.
var sensitiveFields = map[string]bool{
	"prompt":     true,
	"prompts":    true,
	"apikey":     true,
	"secret":     true,
	"secretkey":  true,
	"password":   true,
	"token":      true,
	"credential": true,
}

// redactSensitiveData replaces values under sensitive keys with a fixed
// marker. Key comparison ignores case and underscores, so api_key and
// APIKey both match.
func redactSensitiveData(args []any) []any {
	if len(args)%2 != 0 {
		return args
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		normalized := strings.ToLower(strings.ReplaceAll(key, "_", ""))
		if sensitiveFields[normalized] {
			redacted[i+1] = "[REDACTED]"
		}
	}

	return redacted
}
