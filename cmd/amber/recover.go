package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/danve93/Amber-sub001/cmd/amber/internal"
	"github.com/danve93/Amber-sub001/internal/database"
	"github.com/danve93/Amber-sub001/internal/observability"
	"github.com/danve93/Amber-sub001/internal/types"
)

var (
	recoverDeadline    time.Duration
	recoverParallelism int
	recoverDryRun      bool
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Run a stale-document recovery pass",
	Long: `Run a single recovery pass over the status store and exit.

Documents stuck in an in-flight status (extracting, classifying,
chunking) are settled to a terminal one: documents interrupted during
chunking that already have chunks become ready, everything else is
marked failed. Running this against a live daemon is safe; conditional
updates ensure each document is settled exactly once.

EXAMPLES:

  # Recover everything, no time bound
  $ amber recover

  # Bounded maintenance window with more workers
  $ amber recover --deadline 30s --parallelism 8

  # Count candidates without touching them
  $ amber recover --dry-run`,
	RunE: runRecover,
}

func init() {
	recoverCmd.Flags().DurationVar(&recoverDeadline, "deadline", 0, "Stop initiating new work after this duration (0 = no deadline)")
	recoverCmd.Flags().IntVar(&recoverParallelism, "parallelism", 0, "Concurrent documents to settle (0 = use config)")
	recoverCmd.Flags().BoolVar(&recoverDryRun, "dry-run", false, "List stale documents without settling them")
}

func runRecover(cmd *cobra.Command, args []string) error {
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

	if err := database.NewMigrator(db).Migrate(ctx); err != nil {
		return err
	}
	documents := database.NewDocumentDAO(db)

	if recoverDryRun {
		return runRecoverDryRun(cmd, formatter, documents)
	}

	metrics := observability.NewMetricsRecorder("amber")
	publisher, err := buildPublisher(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer publisher.Close()

	// Flags override the config so an operator can bound an ad-hoc pass
	// without editing the config file.
	runCfg := *cfg
	if recoverDeadline > 0 {
		runCfg.Recovery.Deadline = recoverDeadline
	}
	if recoverParallelism > 0 {
		runCfg.Recovery.Parallelism = recoverParallelism
	}

	scanner, err := buildScanner(&runCfg, documents, publisher, logger, metrics)
	if err != nil {
		return err
	}

	report, err := scanner.Run(ctx)
	if err != nil {
		return err
	}

	if flags.GetOutputFormat() == internal.FormatJSON {
		return formatter.PrintJSON(report)
	}
	return formatter.PrintSuccess(fmt.Sprintf(
		"recovery pass complete: %d recovered, %d marked failed, %d total",
		report.Recovered, report.Failed, report.Total))
}

// runRecoverDryRun lists the stale candidates without settling them.
func runRecoverDryRun(cmd *cobra.Command, formatter internal.Formatter, documents database.DocumentDAO) error {
	statuses := types.ActiveStatuses()
	if len(cfg.Recovery.StaleStatuses) > 0 {
		parsed, err := parseStaleStatuses(cfg.Recovery.StaleStatuses)
		if err != nil {
			return err
		}
		statuses = parsed
	}

	docs, err := documents.ListByStatus(cmd.Context(), statuses...)
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		return formatter.PrintSuccess("no stale documents")
	}

	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, []string{
			doc.ID.String(),
			doc.TenantID.String(),
			string(doc.Status),
			doc.Filename,
			doc.UpdatedAt.Format(time.RFC3339),
		})
	}
	return formatter.PrintTable([]string{"id", "tenant", "status", "filename", "updated_at"}, rows)
}
