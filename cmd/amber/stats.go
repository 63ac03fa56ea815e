package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/danve93/Amber-sub001/cmd/amber/internal"
	"github.com/danve93/Amber-sub001/internal/database"
	"github.com/danve93/Amber-sub001/internal/graph"
	"github.com/danve93/Amber-sub001/internal/maintenance"
	"github.com/danve93/Amber-sub001/internal/observability"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show document and graph statistics",
	Long: `Collect an operator snapshot of the status store and the knowledge
graph: document counts per status plus entity and relationship totals.

Graph counts show as -1 when the graph store is unreachable; document
counts always reflect the status store.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}
	formatter := internal.NewFormatter(flags.GetOutputFormat(), cmd.OutOrStdout())

	logger, err := observability.NewLogger(observability.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: "stderr",
	})
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "invalid logging config", err)
	}
	slog.SetDefault(logger)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	documents := database.NewDocumentDAO(db)

	// Graph connectivity is optional here; the collector degrades the
	// graph side on its own when queries fail.
	var graphClient graph.GraphClient
	client, err := graph.NewNeo4jClient(graph.GraphClientConfig{
		URI:                     cfg.Graph.URI,
		Username:                cfg.Graph.Username,
		Password:                cfg.Graph.Password,
		Database:                cfg.Graph.Database,
		MaxConnectionPoolSize:   cfg.Graph.MaxConnectionPoolSize,
		ConnectionTimeout:       cfg.Graph.ConnectionTimeout,
		MaxTransactionRetryTime: cfg.Graph.MaxTransactionRetryTime,
	})
	if err == nil {
		if err := client.Connect(ctx); err == nil {
			graphClient = client
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = client.Close(closeCtx)
			}()
		} else {
			logger.Warn("graph store unreachable, graph counts will be unavailable", "error", err)
		}
	}

	collector, err := maintenance.NewStatsCollector(documents, graphClient, logger)
	if err != nil {
		return err
	}

	stats, err := collector.Collect(ctx)
	if err != nil {
		return err
	}

	if flags.GetOutputFormat() == internal.FormatJSON {
		return formatter.PrintJSON(stats)
	}

	rows := make([][]string, 0, len(stats.Documents))
	for status, count := range stats.Documents {
		rows = append(rows, []string{string(status), fmt.Sprintf("%d", count)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
	if err := formatter.PrintTable([]string{"status", "documents"}, rows); err != nil {
		return err
	}

	cmd.Printf("\nTotal documents: %d\n", stats.TotalDocuments)
	cmd.Printf("Entities: %s\n", formatGraphCount(stats.Entities))
	cmd.Printf("Relationships: %s\n", formatGraphCount(stats.Relationships))
	cmd.Printf("Collected at: %s\n", stats.CollectedAt.Format(time.RFC3339))
	return nil
}

// formatGraphCount renders -1 sentinels as unavailable.
func formatGraphCount(n int64) string {
	if n < 0 {
		return "unavailable"
	}
	return fmt.Sprintf("%d", n)
}
