package main

import (
	"github.com/spf13/cobra"

	"github.com/danve93/Amber-sub001/internal/bootstrap"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize Amber configuration and status store",
	Long: `Initialize Amber by creating:
- The home directory structure
- A default configuration file
- The SQLite status store with a migrated schema`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing configuration and status store")
}

func runInit(cmd *cobra.Command, args []string) error {
	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}

	homeDir := resolveHomeDir(flags)

	cmd.Printf("Initializing Amber in %s...\n", homeDir)

	result, err := bootstrap.NewDefaultInitializer().Initialize(cmd.Context(), bootstrap.InitOptions{
		HomeDir: homeDir,
		Force:   initForce,
	})
	if err != nil {
		cmd.PrintErrln("Initialization failed:", err)
		return err
	}

	cmd.Println("\nAmber initialized successfully!")
	cmd.Printf("  Home directory: %s\n", result.HomeDir)
	cmd.Printf("  Directories created: %d\n", len(result.DirsCreated))
	cmd.Printf("  Config created: %v\n", result.ConfigCreated)
	cmd.Printf("  Status store created: %v\n", result.DatabaseCreated)
	cmd.Printf("  Schema version: %d\n", result.SchemaVersion)

	if len(result.Warnings) > 0 {
		cmd.Println("\nWarnings:")
		for _, w := range result.Warnings {
			cmd.Printf("  - %s\n", w)
		}
	}

	return nil
}
