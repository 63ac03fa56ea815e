package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/danve93/Amber-sub001/internal/observability"
)

// requestLogger logs one line per request with the chi request ID.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// requestMetrics records request counts and latency per route pattern. The
// pattern keeps label cardinality bounded; raw paths never become labels.
func requestMetrics(recorder observability.MetricsRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}

			recorder.RecordCounter(observability.MetricHTTPRequests, 1, map[string]string{
				"method": r.Method,
				"route":  route,
				"status": strconv.Itoa(ww.Status()),
			})
			recorder.RecordHistogram(observability.MetricHTTPLatency,
				float64(time.Since(start).Microseconds())/1000.0,
				map[string]string{
					"method": r.Method,
					"route":  route,
				})
		})
	}
}
