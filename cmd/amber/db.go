package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danve93/Amber-sub001/cmd/amber/internal"
	"github.com/danve93/Amber-sub001/internal/database"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Status store maintenance",
}

var dbCompactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Checkpoint the WAL and vacuum the status store",
	Long: `Truncate the write-ahead log into the main database file and rebuild
it to reclaim space left by deleted documents and chunks.

Both steps take exclusive locks. Run while the daemon is stopped or idle.`,
	RunE: runDBCompact,
}

func runDBCompact(cmd *cobra.Command, args []string) error {
	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}
	formatter := internal.NewFormatter(flags.GetOutputFormat(), cmd.OutOrStdout())

	before := fileSize(cfg.Database.Path)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Compact(cmd.Context()); err != nil {
		return err
	}

	after := fileSize(cfg.Database.Path)
	if flags.GetOutputFormat() == internal.FormatJSON {
		return formatter.PrintJSON(map[string]int64{
			"bytes_before": before,
			"bytes_after":  after,
		})
	}
	return formatter.PrintSuccess(fmt.Sprintf("status store compacted: %d -> %d bytes", before, after))
}

// fileSize returns the file's size in bytes, or -1 when it cannot be read.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return -1
	}
	return info.Size()
}
