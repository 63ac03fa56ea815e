package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danve93/Amber-sub001/cmd/amber/internal"
	"github.com/danve93/Amber-sub001/internal/config"
	"github.com/danve93/Amber-sub001/internal/util"
	"github.com/danve93/Amber-sub001/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "amber",
	Short: "Amber - Document ingestion and graph retrieval platform core",
	Long: `Amber is the platform core of a document ingestion and graph
retrieval system. It serves the HTTP API, routes natural-language queries
to the knowledge graph, and recovers documents whose ingestion was
interrupted by a crash or restart.

Run 'amber init' once to create the home directory and default
configuration, then 'amber serve' to start the daemon.`,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// cfg is the configuration loaded by loadConfig before any command runs.
// Commands that skip config loading (init, version, help) must not read it.
var cfg *config.Config

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	RegisterGlobalFlags(rootCmd)
	dbCmd.AddCommand(dbCompactCmd)
	rootCmd.AddCommand(initCmd, serveCmd, recoverCmd, queryCmd, statsCmd, dbCmd, versionCmd)
}

// loadConfig runs before every command to resolve and load the config file.
func loadConfig(cmd *cobra.Command, args []string) error {
	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}

	if skipsConfig(cmd) {
		return nil
	}

	homeDir := resolveHomeDir(flags)
	configFile := resolveConfigPath(flags, homeDir)

	if _, err := os.Stat(configFile); err != nil {
		if os.IsNotExist(err) {
			return internal.NewCLIError(internal.ExitConfigError,
				"config file not found at "+configFile+" (run 'amber init' to create)")
		}
		return internal.WrapError(internal.ExitConfigError, "cannot access config file", err)
	}

	loader := config.NewConfigLoader(config.NewValidator())
	cfg, err = loader.LoadWithDefaults(configFile)
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to load config", err)
	}

	return nil
}

// skipsConfig reports whether cmd must work before a configuration exists.
// The completion check covers the shell subcommands cobra generates under
// its built-in completion command.
func skipsConfig(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "init", "version", "help", "completion":
		return true
	}
	return cmd.Parent() != nil && cmd.Parent().Name() == "completion"
}

// resolveHomeDir determines the Amber home directory from flags, the
// AMBER_HOME environment variable, or the platform default, in that order.
func resolveHomeDir(flags *GlobalFlags) string {
	homeDir := flags.HomeDir
	if homeDir == "" {
		homeDir = os.Getenv("AMBER_HOME")
	}
	if homeDir == "" {
		return config.DefaultHomeDir()
	}
	if expanded, err := util.ExpandPath(homeDir); err == nil {
		return expanded
	}
	return homeDir
}

// resolveConfigPath determines the config file path from flags or the
// conventional location under the home directory.
func resolveConfigPath(flags *GlobalFlags, homeDir string) string {
	if flags.ConfigFile == "" {
		return config.DefaultConfigPath(homeDir)
	}
	if expanded, err := util.ExpandPath(flags.ConfigFile); err == nil {
		return expanded
	}
	return flags.ConfigFile
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if globalFlags.GetOutputFormat() == internal.FormatJSON {
			formatter := internal.NewFormatter(internal.FormatJSON, cmd.OutOrStdout())
			_ = formatter.PrintJSON(version.Info())
			return
		}
		cmd.Println(version.String())
	},
}
