package observability

import (
	"fmt"
	"strings"

	"github.com/danve93/Amber-sub001/internal/types"
)

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	Output string `yaml:"output" mapstructure:"output"`
}

// Validate checks Level, Format, and Output against the supported values.
func (c *LoggingConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	level := strings.ToLower(c.Level)
	if !contains(validLevels, level) {
		return types.NewError(ErrCodeInvalidTelemetryConfig,
			fmt.Sprintf("invalid log level: %s (must be one of: %s)", c.Level, strings.Join(validLevels, ", ")))
	}

	validFormats := []string{"json", "text"}
	format := strings.ToLower(c.Format)
	if !contains(validFormats, format) {
		return types.NewError(ErrCodeInvalidTelemetryConfig,
			fmt.Sprintf("invalid log format: %s (must be one of: %s)", c.Format, strings.Join(validFormats, ", ")))
	}

	if c.Output == "" {
		return types.NewError(ErrCodeInvalidTelemetryConfig, "log output is required")
	}
	output := strings.ToLower(c.Output)
	if output != "stdout" && output != "stderr" && !strings.HasPrefix(c.Output, "/") {
		return types.NewError(ErrCodeInvalidTelemetryConfig,
			fmt.Sprintf("invalid log output: %s (must be 'stdout', 'stderr', or an absolute file path)", c.Output))
	}

	return nil
}

// DefaultLoggingConfig returns info-level JSON logging to stdout.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}
}

// TracingConfig contains distributed tracing configuration. Spans export
// over OTLP gRPC when enabled.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint     string  `yaml:"endpoint" mapstructure:"endpoint"`
	ServiceName  string  `yaml:"service_name" mapstructure:"service_name"`
	SampleRate   float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	TLSCertFile  string  `yaml:"tls_cert_file" mapstructure:"tls_cert_file"`
	InsecureMode bool    `yaml:"insecure_mode" mapstructure:"insecure_mode"`
}

// Validate checks the tracing configuration. A disabled config is always
// valid.
func (c *TracingConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.SampleRate < 0.0 || c.SampleRate > 1.0 {
		return types.NewError(ErrCodeInvalidTelemetryConfig,
			fmt.Sprintf("invalid sample rate: %f (must be between 0.0 and 1.0)", c.SampleRate))
	}

	if c.Endpoint == "" {
		return types.NewError(ErrCodeInvalidTelemetryConfig, "endpoint is required when tracing is enabled")
	}

	if c.ServiceName == "" {
		return types.NewError(ErrCodeInvalidTelemetryConfig, "service name is required when tracing is enabled")
	}

	return nil
}

func contains(valid []string, candidate string) bool {
	for _, v := range valid {
		if candidate == v {
			return true
		}
	}
	return false
}
