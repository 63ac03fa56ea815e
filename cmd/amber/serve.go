package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/danve93/Amber-sub001/cmd/amber/internal"
	"github.com/danve93/Amber-sub001/internal/config"
	"github.com/danve93/Amber-sub001/internal/database"
	"github.com/danve93/Amber-sub001/internal/events"
	"github.com/danve93/Amber-sub001/internal/graph"
	"github.com/danve93/Amber-sub001/internal/llm"
	"github.com/danve93/Amber-sub001/internal/maintenance"
	"github.com/danve93/Amber-sub001/internal/observability"
	"github.com/danve93/Amber-sub001/internal/recovery"
	"github.com/danve93/Amber-sub001/internal/server"
	"github.com/danve93/Amber-sub001/internal/structured"
	"github.com/danve93/Amber-sub001/internal/types"
	"github.com/danve93/Amber-sub001/pkg/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Amber daemon",
	Long: `Run the Amber daemon (blocks until stopped).

The daemon serves the HTTP API, routes queries against the knowledge
graph, and recovers documents left in-flight by an interrupted ingestion
run. It runs in the foreground and shuts down cleanly on SIGINT or
SIGTERM, which makes it suitable for containers and systemd units.

EXAMPLES:

  # Start the daemon (blocks until Ctrl+C)
  $ amber serve

  # Docker container
  CMD ["amber", "serve"]`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	started := time.Now()

	logger, err := observability.NewLogger(observability.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: "stderr",
	})
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "invalid logging config", err)
	}
	slog.SetDefault(logger)

	tracerProvider, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:      cfg.Tracing.Enabled,
		Endpoint:     cfg.Tracing.Endpoint,
		ServiceName:  "amber",
		SampleRate:   cfg.Tracing.SampleRate,
		InsecureMode: cfg.Tracing.Insecure,
	})
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to initialize tracing", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := observability.ShutdownTracing(shutdownCtx, tracerProvider); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	metrics := observability.NewMetricsRecorder("amber")

	// Status store
	dbCfg := database.DefaultConfig(cfg.Database.Path)
	if cfg.Database.MaxConnections > 0 {
		dbCfg.MaxOpenConns = cfg.Database.MaxConnections
	}
	if cfg.Database.Timeout > 0 {
		dbCfg.BusyTimeout = cfg.Database.Timeout
	}
	db, err := database.OpenWithConfig(dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.NewMigrator(db).Migrate(ctx); err != nil {
		return err
	}
	documents := database.NewDocumentDAO(db)

	// Knowledge graph
	graphClient, err := graph.NewNeo4jClient(graph.GraphClientConfig{
		URI:                     cfg.Graph.URI,
		Username:                cfg.Graph.Username,
		Password:                cfg.Graph.Password,
		Database:                cfg.Graph.Database,
		MaxConnectionPoolSize:   cfg.Graph.MaxConnectionPoolSize,
		ConnectionTimeout:       cfg.Graph.ConnectionTimeout,
		MaxTransactionRetryTime: cfg.Graph.MaxTransactionRetryTime,
	})
	if err != nil {
		return err
	}
	if err := graphClient.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := graphClient.Close(closeCtx); err != nil {
			logger.Warn("graph client close failed", "error", err)
		}
	}()

	// Event publisher
	publisher, err := buildPublisher(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("publisher close failed", "error", err)
		}
	}()

	// Query routing
	router, err := buildRouter(cfg, graphClient, logger, metrics)
	if err != nil {
		return err
	}

	// Recovery scanner
	scanner, err := buildScanner(cfg, documents, publisher, logger, metrics)
	if err != nil {
		return err
	}

	stats, err := maintenance.NewStatsCollector(documents, graphClient, logger)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(
		server.Config{
			Host:            cfg.Server.Host,
			Port:            cfg.Server.Port,
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		},
		server.Deps{
			Router:    router,
			Documents: documents,
			Stats:     stats,
			Recovery:  scanner,
			Publisher: publisher,
			Health: map[string]server.HealthProbe{
				"database": server.DatabaseHealthProbe(db),
				"graph":    graphClient.Health,
			},
		},
		server.WithLogger(logger),
		server.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}

	// Settle documents abandoned by a previous run before taking traffic.
	// A failed pass is logged but does not prevent serving; it can be
	// retried through POST /api/v1/admin/recover.
	if cfg.Recovery.Enabled && cfg.Recovery.OnStartup {
		if report, err := scanner.Run(ctx); err != nil {
			logger.Error("startup recovery pass failed", "error", err)
		} else {
			logger.Info("startup recovery pass complete",
				"recovered", report.Recovered,
				"failed", report.Failed,
				"total", report.Total)
		}
	}

	if cfg.Recovery.Enabled && cfg.Recovery.Interval > 0 {
		go runRecoveryLoop(ctx, scanner, cfg.Recovery.Interval, logger)
	}

	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}
	homeDir := resolveHomeDir(flags)
	configPath := resolveConfigPath(flags, homeDir)

	if err := publisher.Publish(ctx, events.TopicDaemonStarted, events.DaemonStartedPayload{
		Version:       version.Version,
		ConfigPath:    configPath,
		ListenAddress: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
	}); err != nil {
		logger.Warn("failed to publish daemon started event", "error", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := publisher.Publish(stopCtx, events.TopicDaemonStopped, events.DaemonStoppedPayload{
			Version: version.Version,
			Uptime:  time.Since(started),
		}); err != nil {
			logger.Warn("failed to publish daemon stopped event", "error", err)
		}
	}()

	return srv.Start(ctx)
}

// buildPublisher constructs the configured event publisher. "none" yields a
// publisher that discards everything, keeping the rest of the wiring
// unconditional.
func buildPublisher(ctx context.Context, c *config.Config, logger *slog.Logger, metrics observability.MetricsRecorder) (events.Publisher, error) {
	switch c.Events.Provider {
	case "redis":
		return events.NewRedisPublisher(ctx, events.RedisPublisherConfig{
			Addr:          c.Events.Redis.Addr,
			Password:      c.Events.Redis.Password,
			DB:            c.Events.Redis.DB,
			ChannelPrefix: c.Events.Redis.ChannelPrefix,
		})
	case "bus":
		return events.NewEventBus(
			events.WithMetrics(metrics),
			events.WithErrorHandler(func(err error, fields map[string]interface{}) {
				logger.Warn("event bus error", "error", err, "context", fields)
			}),
		), nil
	default:
		return events.NewNopPublisher(), nil
	}
}

// buildRouter assembles detector, executor, and router. The LLM classifier
// is only constructed when the fallback is enabled, so a misconfigured
// provider cannot break pattern-only deployments.
func buildRouter(c *config.Config, client graph.GraphClient, logger *slog.Logger, metrics observability.MetricsRecorder) (*structured.Router, error) {
	var classifier llm.Classifier
	if c.Query.Fallback.Enabled {
		tokens := make([]string, 0, len(structured.StructuredQueryTypes()))
		for _, qt := range structured.StructuredQueryTypes() {
			tokens = append(tokens, string(qt))
		}

		var err error
		classifier, err = llm.NewLLMClassifier(llm.ProviderConfig{
			Provider: c.LLM.Provider,
			Model:    c.LLM.Model,
			BaseURL:  c.LLM.BaseURL,
			APIKey:   c.LLM.APIKey,
		}, tokens)
		if err != nil {
			return nil, err
		}
	}

	detector := structured.NewDetector(structured.DetectorConfig{
		DefaultLimit:          c.Query.DefaultLimit,
		MaxLimit:              c.Query.MaxLimit,
		FallbackEnabled:       c.Query.Fallback.Enabled,
		FallbackTimeout:       c.Query.Fallback.Timeout,
		MinConfidence:         c.Query.Fallback.MinConfidence,
		FallbackRatePerMinute: c.Query.Fallback.RatePerMinute,
	}, classifier, logger)

	executor, err := structured.NewExecutor(client, nil, logger)
	if err != nil {
		return nil, err
	}

	return structured.NewRouter(detector, executor, logger, metrics), nil
}

// buildScanner constructs the recovery scanner from configuration.
func buildScanner(c *config.Config, store recovery.StatusStore, publisher events.Publisher, logger *slog.Logger, metrics observability.MetricsRecorder) (*recovery.Scanner, error) {
	opts := []recovery.Option{
		recovery.WithPublisher(publisher),
		recovery.WithLogger(logger),
		recovery.WithMetrics(metrics),
		recovery.WithParallelism(c.Recovery.Parallelism),
		recovery.WithDeadline(c.Recovery.Deadline),
	}

	if len(c.Recovery.StaleStatuses) > 0 {
		statuses, err := parseStaleStatuses(c.Recovery.StaleStatuses)
		if err != nil {
			return nil, err
		}
		opts = append(opts, recovery.WithStaleStatuses(statuses...))
	}

	return recovery.NewScanner(store, opts...)
}

// parseStaleStatuses converts configured status names, rejecting unknown
// values so a typo fails startup instead of silently scanning nothing.
func parseStaleStatuses(names []string) ([]types.DocumentStatus, error) {
	statuses := make([]types.DocumentStatus, 0, len(names))
	for _, name := range names {
		status := types.DocumentStatus(name)
		if !status.IsValid() {
			return nil, internal.NewCLIError(internal.ExitConfigError,
				fmt.Sprintf("unknown document status %q in recovery.stale_statuses", name))
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// runRecoveryLoop runs periodic recovery passes until the context ends.
func runRecoveryLoop(ctx context.Context, scanner *recovery.Scanner, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := scanner.Run(ctx)
			if err != nil {
				logger.Error("periodic recovery pass failed", "error", err)
				continue
			}
			if report.Total > 0 {
				logger.Info("periodic recovery pass complete",
					"recovered", report.Recovered,
					"failed", report.Failed,
					"total", report.Total)
			}
		}
	}
}
