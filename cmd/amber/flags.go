package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danve93/Amber-sub001/cmd/amber/internal"
)

// GlobalFlags holds the persistent flags shared by every subcommand.
type GlobalFlags struct {
	Verbose      bool
	Quiet        bool
	OutputFormat string
	ConfigFile   string
	HomeDir      string
}

var globalFlags = &GlobalFlags{}

// RegisterGlobalFlags wires the persistent flags onto the root command.
func RegisterGlobalFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "Enable verbose output")
	pf.BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	pf.StringVarP(&globalFlags.OutputFormat, "output", "o", "text", "Output format (text|json)")
	pf.StringVar(&globalFlags.ConfigFile, "config", "", "Path to config file (default: $AMBER_HOME/config.yaml)")
	pf.StringVar(&globalFlags.HomeDir, "home", "", "Amber home directory (default: ~/.amber)")
}

// ParseGlobalFlags validates the persistent flags and returns them.
func ParseGlobalFlags(cmd *cobra.Command) (*GlobalFlags, error) {
	switch globalFlags.OutputFormat {
	case string(internal.FormatText), string(internal.FormatJSON):
	default:
		return nil, internal.NewCLIError(internal.ExitConfigError,
			fmt.Sprintf("unknown output format %q (want text or json)", globalFlags.OutputFormat))
	}

	if globalFlags.Verbose && globalFlags.Quiet {
		return nil, internal.NewCLIError(internal.ExitConfigError,
			"--verbose and --quiet cannot be used together")
	}

	return globalFlags, nil
}

// GetOutputFormat maps the raw flag value onto the formatter enum.
func (f *GlobalFlags) GetOutputFormat() internal.OutputFormat {
	if f.OutputFormat == string(internal.FormatJSON) {
		return internal.FormatJSON
	}
	return internal.FormatText
}

// IsVerbose reports whether verbose output is active; quiet wins.
func (f *GlobalFlags) IsVerbose() bool {
	return f.Verbose && !f.Quiet
}
