package observability

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNoOpMetricsRecorder(t *testing.T) {
	recorder := NewNoOpMetricsRecorder()

	// Must be safe with nil labels and zero values.
	recorder.RecordCounter("amber.test", 1, nil)
	recorder.RecordGauge("amber.test", 0, nil)
	recorder.RecordHistogram("amber.test", 0, map[string]string{"k": "v"})
}

func TestOpenTelemetryMetricsRecorder_Record(t *testing.T) {
	recorder := NewOpenTelemetryMetricsRecorder(noop.NewMeterProvider().Meter("test"))

	labels := map[string]string{"query_type": "list_documents"}
	recorder.RecordCounter(MetricQueryStructured, 1, labels)
	recorder.RecordHistogram(MetricQueryLatency, 12.5, labels)
	recorder.RecordGauge("amber.subscribers", 3, nil)

	// Instruments are cached after first use.
	recorder.RecordCounter(MetricQueryStructured, 1, labels)
	recorder.mu.RLock()
	assert.Len(t, recorder.counters, 1)
	assert.Len(t, recorder.histograms, 1)
	assert.Len(t, recorder.gauges, 1)
	recorder.mu.RUnlock()
}

func TestOpenTelemetryMetricsRecorder_GaugeStoresLatest(t *testing.T) {
	recorder := NewOpenTelemetryMetricsRecorder(noop.NewMeterProvider().Meter("test"))

	recorder.RecordGauge("amber.queue.depth", 10, nil)
	recorder.RecordGauge("amber.queue.depth", 3, map[string]string{"worker": "a"})

	recorder.gaugeMu.RLock()
	defer recorder.gaugeMu.RUnlock()
	state := recorder.gaugeData["amber.queue.depth"]
	assert.Equal(t, 3.0, state.value)
	assert.Equal(t, "a", state.labels["worker"])
}

func TestOpenTelemetryMetricsRecorder_Concurrent(t *testing.T) {
	recorder := NewOpenTelemetryMetricsRecorder(noop.NewMeterProvider().Meter("test"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				recorder.RecordCounter(MetricRecoveryRecovered, 1, nil)
				recorder.RecordGauge("amber.active", float64(j), nil)
				recorder.RecordHistogram(MetricHTTPLatency, float64(j), nil)
			}
		}()
	}
	wg.Wait()

	recorder.mu.RLock()
	defer recorder.mu.RUnlock()
	assert.Len(t, recorder.counters, 1)
}

func TestNewMetricsRecorder_DefaultScope(t *testing.T) {
	recorder := NewMetricsRecorder("")
	assert.NotNil(t, recorder)

	// Global provider defaults to noop, so recording must be harmless.
	recorder.RecordCounter(MetricHTTPRequests, 1, map[string]string{"path": "/healthz"})
}

func TestAttrsFromLabels(t *testing.T) {
	assert.Empty(t, attrsFromLabels(nil))

	attrs := attrsFromLabels(map[string]string{"a": "1", "b": "2"})
	assert.Len(t, attrs, 2)
}
