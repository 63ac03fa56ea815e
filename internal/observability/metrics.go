package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric name constants for Amber platform observability. Centralized so
// recording sites and dashboards cannot drift apart.
const (
	// Structured query routing metrics
	MetricQueryStructured  = "amber.query.structured"
	MetricQueryFallthrough = "amber.query.fallthrough"
	MetricQueryLatency     = "amber.query.latency_ms"

	// Recovery scanner metrics
	MetricRecoveryRuns      = "amber.recovery.runs"
	MetricRecoveryRecovered = "amber.recovery.recovered"
	MetricRecoveryFailed    = "amber.recovery.failed"
	MetricRecoverySkipped   = "amber.recovery.skipped"
	MetricRecoveryDuration  = "amber.recovery.duration_ms"

	// HTTP API metrics
	MetricHTTPRequests = "amber.http.requests"
	MetricHTTPLatency  = "amber.http.latency_ms"

	// Event delivery metrics
	MetricEventsPublished = "amber.events.published"
	MetricEventsDropped   = "amber.events.dropped"
)

// MetricsRecorder records operational metrics without coupling callers to a
// specific metrics backend.
//
// Implementations must be safe for concurrent use; metrics are recorded from
// request handlers and background workers simultaneously.
type MetricsRecorder interface {
	// RecordCounter increments a cumulative counter by value.
	RecordCounter(name string, value int64, labels map[string]string)

	// RecordGauge sets a point-in-time measurement that can go up or down.
	RecordGauge(name string, value float64, labels map[string]string)

	// RecordHistogram records an observation in a distribution, typically a
	// latency or size.
	RecordHistogram(name string, value float64, labels map[string]string)
}

// NoOpMetricsRecorder discards all metrics. Useful for tests and for
// components constructed without a metrics backend.
type NoOpMetricsRecorder struct{}

// NewNoOpMetricsRecorder creates a no-op metrics recorder. All recording
// methods are safe to call with nil labels.
func NewNoOpMetricsRecorder() *NoOpMetricsRecorder {
	return &NoOpMetricsRecorder{}
}

func (n *NoOpMetricsRecorder) RecordCounter(name string, value int64, labels map[string]string) {}

func (n *NoOpMetricsRecorder) RecordGauge(name string, value float64, labels map[string]string) {}

func (n *NoOpMetricsRecorder) RecordHistogram(name string, value float64, labels map[string]string) {
}

var _ MetricsRecorder = (*NoOpMetricsRecorder)(nil)

// OpenTelemetryMetricsRecorder implements MetricsRecorder on the
// OpenTelemetry metric API. Export behavior follows whatever meter provider
// the process has registered globally; with none registered the instruments
// are no-ops, so recording is always safe.
//
// Instruments are created lazily on first use and cached; see getOrCreate.
type OpenTelemetryMetricsRecorder struct {
	meter metric.Meter

	mu         sync.RWMutex
	counters   map[string]metric.Int64Counter
	gauges     map[string]metric.Float64ObservableGauge
	histograms map[string]metric.Float64Histogram

	// Latest observation per gauge, read by instrument callbacks.
	gaugeMu   sync.RWMutex
	gaugeData map[string]gaugeState
}

type gaugeState struct {
	value  float64
	labels map[string]string
}

// NewMetricsRecorder creates a recorder on the globally registered meter
// provider under the given instrumentation scope name.
func NewMetricsRecorder(scope string) *OpenTelemetryMetricsRecorder {
	if scope == "" {
		scope = "amber"
	}
	return NewOpenTelemetryMetricsRecorder(otel.Meter(scope))
}

// NewOpenTelemetryMetricsRecorder creates a recorder on an explicit meter.
func NewOpenTelemetryMetricsRecorder(meter metric.Meter) *OpenTelemetryMetricsRecorder {
	return &OpenTelemetryMetricsRecorder{
		meter:      meter,
		counters:   make(map[string]metric.Int64Counter),
		gauges:     make(map[string]metric.Float64ObservableGauge),
		histograms: make(map[string]metric.Float64Histogram),
		gaugeData:  make(map[string]gaugeState),
	}
}

// RecordCounter increments the named counter by value.
func (r *OpenTelemetryMetricsRecorder) RecordCounter(name string, value int64, labels map[string]string) {
	counter, ok := getOrCreate(&r.mu, r.counters, name, r.meter.Int64Counter)
	if !ok {
		return
	}
	counter.Add(context.Background(), value, metric.WithAttributes(attrsFromLabels(labels)...))
}

// RecordGauge stores the latest value for the named gauge. OpenTelemetry
// gauges are observable: the instrument's callback reads the stored value on
// each collection.
func (r *OpenTelemetryMetricsRecorder) RecordGauge(name string, value float64, labels map[string]string) {
	r.gaugeMu.Lock()
	r.gaugeData[name] = gaugeState{value: value, labels: labels}
	r.gaugeMu.Unlock()

	getOrCreate(&r.mu, r.gauges, name, r.buildGauge)
}

// RecordHistogram records an observation in the named histogram.
func (r *OpenTelemetryMetricsRecorder) RecordHistogram(name string, value float64, labels map[string]string) {
	histogram, ok := getOrCreate(&r.mu, r.histograms, name, r.meter.Float64Histogram)
	if !ok {
		return
	}
	histogram.Record(context.Background(), value, metric.WithAttributes(attrsFromLabels(labels)...))
}

// buildGauge creates an observable gauge whose callback reports the most
// recently recorded value for name.
func (r *OpenTelemetryMetricsRecorder) buildGauge(name string, _ ...metric.Float64ObservableGaugeOption) (metric.Float64ObservableGauge, error) {
	return r.meter.Float64ObservableGauge(name,
		metric.WithFloat64Callback(func(_ context.Context, observer metric.Float64Observer) error {
			r.gaugeMu.RLock()
			state, ok := r.gaugeData[name]
			r.gaugeMu.RUnlock()

			if ok {
				observer.Observe(state.value, metric.WithAttributes(attrsFromLabels(state.labels)...))
			}
			return nil
		}),
	)
}

// getOrCreate returns the cached instrument for name, building and caching
// it on first use. Double-checked locking keeps the hot path on the read
// lock. A false result means the meter rejected the instrument; callers
// drop the observation.
func getOrCreate[T any, O any](mu *sync.RWMutex, cache map[string]T, name string, build func(string, ...O) (T, error)) (T, bool) {
	mu.RLock()
	inst, ok := cache[name]
	mu.RUnlock()
	if ok {
		return inst, true
	}

	mu.Lock()
	defer mu.Unlock()
	if inst, ok := cache[name]; ok {
		return inst, true
	}

	inst, err := build(name)
	if err != nil {
		var zero T
		return zero, false
	}
	cache[name] = inst
	return inst, true
}

// attrsFromLabels converts a string map to OpenTelemetry attributes.
func attrsFromLabels(labels map[string]string) []attribute.KeyValue {
	if len(labels) == 0 {
		return nil
	}
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}

var _ MetricsRecorder = (*OpenTelemetryMetricsRecorder)(nil)
