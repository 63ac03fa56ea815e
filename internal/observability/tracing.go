package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc/credentials"

	"github.com/danve93/Amber-sub001/internal/types"
	"github.com/danve93/Amber-sub001/pkg/version"
)

const (
	defaultBatchTimeout = 5 * time.Second
	defaultServiceName  = "amber"
)

// TracingOption adjusts tracing initialization beyond what TracingConfig
// carries.
type TracingOption func(*tracingOptions)

type tracingOptions struct {
	sampler      sdktrace.Sampler
	resource     *resource.Resource
	batchTimeout time.Duration
}

// WithSampler sets a custom sampler, overriding the sample-rate-derived one.
func WithSampler(sampler sdktrace.Sampler) TracingOption {
	return func(o *tracingOptions) {
		o.sampler = sampler
	}
}

// WithResource sets a custom resource describing the telemetry producer.
func WithResource(res *resource.Resource) TracingOption {
	return func(o *tracingOptions) {
		o.resource = res
	}
}

// WithBatchTimeout sets the maximum time between span batch exports.
func WithBatchTimeout(timeout time.Duration) TracingOption {
	return func(o *tracingOptions) {
		o.batchTimeout = timeout
	}
}

// InitTracing initializes distributed tracing over OTLP gRPC and registers
// the provider globally.
//
// When cfg.Enabled is false it returns a provider that records nothing, so
// callers can hold and shut down a provider unconditionally.
func InitTracing(ctx context.Context, cfg TracingConfig, opts ...TracingOption) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		return sdktrace.NewTracerProvider(), nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &tracingOptions{batchTimeout: defaultBatchTimeout}
	for _, opt := range opts {
		opt(options)
	}
	if options.sampler == nil {
		options.sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}
	if options.resource == nil {
		res, err := buildResource(ctx, cfg.ServiceName)
		if err != nil {
			return nil, err
		}
		options.resource = res
	}

	exporter, err := buildExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(options.batchTimeout),
		),
		sdktrace.WithSampler(options.sampler),
		sdktrace.WithResource(options.resource),
	)
	otel.SetTracerProvider(tp)
	return tp, nil
}

// buildResource describes this process to the telemetry backend. resource.New
// instead of merging resource.Default() avoids schema URL conflicts between
// SDK and semconv versions.
func buildResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	res, err := resource.New(
		ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version.Version),
		),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, types.WrapError(ErrCodeExporterConnection, "failed to create resource", err)
	}
	return res, nil
}

// buildExporter dials the OTLP collector. Transport security follows the
// config: an explicit CA bundle, plaintext for local collectors, or system
// TLS roots.
func buildExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	otlpOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	switch {
	case cfg.TLSCertFile != "":
		creds, err := credentials.NewClientTLSFromFile(cfg.TLSCertFile, "")
		if err != nil {
			return nil, types.WrapError(ErrCodeExporterConnection, "failed to load TLS credentials", err)
		}
		otlpOpts = append(otlpOpts, otlptracegrpc.WithTLSCredentials(creds))
	case cfg.InsecureMode:
		otlpOpts = append(otlpOpts, otlptracegrpc.WithInsecure())
	default:
		otlpOpts = append(otlpOpts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(nil)))
	}

	exporter, err := otlptracegrpc.New(ctx, otlpOpts...)
	if err != nil {
		return nil, types.WrapRetryableError(ErrCodeExporterConnection,
			fmt.Sprintf("cannot create OTLP exporter for %s", cfg.Endpoint), err)
	}
	return exporter, nil
}

// ShutdownTracing flushes pending spans and shuts the provider down. Call it
// before process exit; the context timeout bounds how long in-flight exports
// may take.
func ShutdownTracing(ctx context.Context, provider *sdktrace.TracerProvider) error {
	if provider == nil {
		return nil
	}

	if err := provider.Shutdown(ctx); err != nil {
		return types.WrapError(ErrCodeShutdownTimeout, "failed to shutdown tracer provider", err)
	}
	return nil
}
