package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/danve93/Amber-sub001/internal/database"
	"github.com/danve93/Amber-sub001/internal/events"
	"github.com/danve93/Amber-sub001/internal/observability"
	"github.com/danve93/Amber-sub001/internal/recovery"
	"github.com/danve93/Amber-sub001/internal/structured"
	"github.com/danve93/Amber-sub001/internal/types"
)

// QueryRouter decides whether a query is answerable from graph metadata.
type QueryRouter interface {
	Route(ctx context.Context, query, tenantID string) (*structured.Answer, bool)
}

// Fallback answers queries the structured path declined. The general
// pipeline lives outside this core; implementations typically proxy to it.
type Fallback interface {
	Answer(ctx context.Context, query, tenantID string) (any, error)
}

// DocumentStore is the slice of the document store the API needs.
type DocumentStore interface {
	Create(ctx context.Context, doc *types.DocumentRecord) error
	GetByID(ctx context.Context, id types.ID) (*types.DocumentRecord, error)
}

// StatsSource assembles the operator stats snapshot.
type StatsSource interface {
	Collect(ctx context.Context) (*types.DatabaseStats, error)
}

// RecoveryRunner executes one recovery pass.
type RecoveryRunner interface {
	Run(ctx context.Context) (recovery.Report, error)
}

// HealthProbe reports one component's health.
type HealthProbe func(ctx context.Context) types.HealthStatus

var (
	_ QueryRouter    = (*structured.Router)(nil)
	_ DocumentStore  = (database.DocumentDAO)(nil)
	_ RecoveryRunner = (*recovery.Scanner)(nil)
)

// Deps are the collaborators the HTTP API serves.
type Deps struct {
	Router    QueryRouter
	Documents DocumentStore
	Stats     StatsSource
	Recovery  RecoveryRunner

	// Publisher receives a status event for each document created through
	// the API. Optional; defaults to the no-op publisher.
	Publisher events.Publisher

	// Fallback handles queries the structured path declined. Optional;
	// without one the API returns a routing marker instead of an answer.
	Fallback Fallback

	// Health holds per-component health probes keyed by component name.
	Health map[string]HealthProbe
}

// Server is the Amber HTTP API.
type Server struct {
	config  Config
	deps    Deps
	logger  *slog.Logger
	traced  *observability.TracedLogger
	metrics observability.MetricsRecorder
	router  chi.Router
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
// Default: no-op recorder.
func WithMetrics(recorder observability.MetricsRecorder) ServerOption {
	return func(s *Server) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// NewServer creates the HTTP API server.
func NewServer(cfg Config, deps Deps, opts ...ServerOption) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Router == nil {
		return nil, types.NewError(ErrCodeServerInvalidConfig, "query router is required")
	}
	if deps.Documents == nil {
		return nil, types.NewError(ErrCodeServerInvalidConfig, "document store is required")
	}
	if deps.Stats == nil {
		return nil, types.NewError(ErrCodeServerInvalidConfig, "stats source is required")
	}
	if deps.Recovery == nil {
		return nil, types.NewError(ErrCodeServerInvalidConfig, "recovery runner is required")
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NewNopPublisher()
	}

	s := &Server{
		config:  cfg,
		deps:    deps,
		logger:  slog.Default(),
		metrics: observability.NewNoOpMetricsRecorder(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.traced = observability.NewTracedLogger(s.logger.Handler())
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(requestMetrics(s.metrics))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Post("/api/v1/query", s.handleQuery)
	r.Post("/api/v1/documents", s.handleCreateDocument)
	r.Get("/api/v1/documents/{id}", s.handleGetDocument)
	r.Get("/api/v1/admin/stats", s.handleStats)
	r.Post("/api/v1/admin/recover", s.handleRecover)

	return r
}

// Handler exposes the routing tree, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves until ctx is cancelled,
// then drains in-flight requests within the shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return types.WrapError(ErrCodeServerListenFailed, "cannot listen on "+s.config.Addr(), err)
	}

	httpServer := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()

	s.logger.InfoContext(ctx, "http server started", "addr", listener.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return types.WrapError(ErrCodeServerShutdown, "graceful shutdown failed", err)
		}
		<-serveErr
		s.logger.Info("http server stopped")
		return nil

	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return types.WrapError(ErrCodeServerListenFailed, "http server failed", err)
		}
		return nil
	}
}

// healthSnapshot runs every probe and aggregates the component statuses.
func (s *Server) healthSnapshot(ctx context.Context) types.SystemHealth {
	components := make(map[string]types.HealthStatus, len(s.deps.Health))
	for name, probe := range s.deps.Health {
		components[name] = probe(ctx)
	}
	return types.NewSystemHealth(components)
}

// DatabaseHealthProbe adapts the relational store's error-style health check.
func DatabaseHealthProbe(db *database.DB) HealthProbe {
	return func(ctx context.Context) types.HealthStatus {
		start := time.Now()
		if err := db.Health(ctx); err != nil {
			return types.Unhealthy(err.Error())
		}
		return types.Healthy("ping " + time.Since(start).Round(time.Microsecond).String())
	}
}
