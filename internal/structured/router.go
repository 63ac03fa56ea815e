package structured

import (
	"context"
	"log/slog"
	"time"

	"github.com/danve93/Amber-sub001/internal/observability"
	"github.com/danve93/Amber-sub001/internal/types"
)

// AnswerTypeStructured marks responses produced by the structured pipeline.
const AnswerTypeStructured = "structured"

// Timing carries request latency for the response envelope.
type Timing struct {
	TotalMS float64 `json:"total_ms"`
}

// Answer is the structured pipeline's response envelope.
type Answer struct {
	Type      string           `json:"type"`
	QueryType QueryType        `json:"query_type"`
	Data      []map[string]any `json:"data"`
	Count     int64            `json:"count"`
	Timing    Timing           `json:"timing"`
}

// Router decides whether a query is answerable from graph metadata and, if
// so, answers it. Queries it cannot answer fall through to the caller's
// general pipeline; the caller learns only that routing declined, never why,
// so a degraded graph store silently downgrades service instead of failing
// requests.
type Router struct {
	detector *Detector
	executor *Executor
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
}

// NewRouter creates a router. metrics may be nil, in which case recording is
// a no-op.
func NewRouter(detector *Detector, executor *Executor, logger *slog.Logger, metrics observability.MetricsRecorder) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NewNoOpMetricsRecorder()
	}
	return &Router{
		detector: detector,
		executor: executor,
		logger:   logger,
		metrics:  metrics,
	}
}

// Route attempts to answer the query from the structured pipeline. It
// returns (answer, true) when the query matched a structured intent and the
// store answered, and (nil, false) otherwise. Errors never escape: they are
// logged and converted to a fallthrough.
func (r *Router) Route(ctx context.Context, query, tenantID string) (*Answer, bool) {
	start := time.Now()

	intent := r.detector.Detect(ctx, query)
	if !intent.Type.IsStructured() {
		r.metrics.RecordCounter(observability.MetricQueryFallthrough, 1,
			map[string]string{"reason": "not_structured"})
		return nil, false
	}

	result, err := r.executor.Execute(ctx, intent, tenantID)
	if err != nil {
		code, _ := types.CodeOf(err)
		logFn := r.logger.WarnContext
		if code == ErrCodeTemplateMissing || code == ErrCodeInvalidIntent {
			// Wiring defects, not store weather.
			logFn = r.logger.ErrorContext
		}
		logFn(ctx, "structured query failed, falling through",
			"query_type", intent.Type,
			"error_code", code,
			"error", err)
		r.metrics.RecordCounter(observability.MetricQueryFallthrough, 1,
			map[string]string{"reason": string(code), "query_type": string(intent.Type)})
		return nil, false
	}

	elapsed := time.Since(start)
	r.metrics.RecordCounter(observability.MetricQueryStructured, 1,
		map[string]string{"query_type": string(intent.Type)})
	r.metrics.RecordHistogram(observability.MetricQueryLatency, float64(elapsed.Milliseconds()),
		map[string]string{"query_type": string(intent.Type)})

	r.logger.DebugContext(ctx, "structured query answered",
		"query_type", intent.Type,
		"count", result.Count,
		"duration_ms", elapsed.Milliseconds())

	return &Answer{
		Type:      AnswerTypeStructured,
		QueryType: result.QueryType,
		Data:      result.Data,
		Count:     result.Count,
		Timing:    Timing{TotalMS: float64(elapsed.Microseconds()) / 1000.0},
	}, true
}
