package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danve93/Amber-sub001/cmd/amber/internal"
	"github.com/danve93/Amber-sub001/internal/graph"
	"github.com/danve93/Amber-sub001/internal/observability"
	"github.com/danve93/Amber-sub001/internal/structured"
)

var queryTenant string

var queryCmd = &cobra.Command{
	Use:   "query [text...]",
	Short: "Route a query against the knowledge graph",
	Long: `Route a natural-language query through the structured pipeline.

Queries that match a structured intent (listing or counting documents,
entities, or relationships) are answered directly from graph metadata.
Anything else is reported as unrouted; the daemon would hand such
queries to the general retrieval pipeline.

EXAMPLES:

  $ amber query --tenant 2f1f6ce8-6a6b-4f8e-9da3-c4e3f98b61a1 "how many documents are there"
  $ amber query --tenant $TENANT list documents named report`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryTenant, "tenant", "", "Tenant ID to scope the query (required)")
	_ = queryCmd.MarkFlagRequired("tenant")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	queryText := strings.Join(args, " ")

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
		_ = graphClient.Close(closeCtx)
	}()

	router, err := buildRouter(cfg, graphClient, logger, observability.NewNoOpMetricsRecorder())
	if err != nil {
		return err
	}

	answer, ok := router.Route(ctx, queryText, queryTenant)
	if !ok {
		if flags.GetOutputFormat() == internal.FormatJSON {
			return formatter.PrintJSON(map[string]any{
				"type":   "unstructured",
				"routed": "general",
			})
		}
		cmd.Println("Query is not answerable from graph metadata; the daemon would route it to the general pipeline.")
		return nil
	}

	if flags.GetOutputFormat() == internal.FormatJSON {
		return formatter.PrintJSON(answer)
	}
	return printAnswer(cmd, formatter, answer)
}

// printAnswer renders a structured answer as text: a bare count for count
// queries, a column-sorted table otherwise.
func printAnswer(cmd *cobra.Command, formatter internal.Formatter, answer *structured.Answer) error {
	if len(answer.Data) == 0 {
		cmd.Printf("Count: %d (%s, %.1fms)\n", answer.Count, answer.QueryType, answer.Timing.TotalMS)
		return nil
	}

	headers := make([]string, 0, len(answer.Data[0]))
	for key := range answer.Data[0] {
		headers = append(headers, key)
	}
	sort.Strings(headers)

	rows := make([][]string, 0, len(answer.Data))
	for _, record := range answer.Data {
		row := make([]string, 0, len(headers))
		for _, key := range headers {
			row = append(row, fmt.Sprintf("%v", record[key]))
		}
		rows = append(rows, row)
	}

	if err := formatter.PrintTable(headers, rows); err != nil {
		return err
	}
	cmd.Printf("\n%d rows (%s, %.1fms)\n", answer.Count, answer.QueryType, answer.Timing.TotalMS)
	return nil
}
