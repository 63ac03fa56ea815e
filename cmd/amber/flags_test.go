package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danve93/Amber-sub001/cmd/amber/internal"
)

// setFlags swaps the package-level flag state for one test.
func setFlags(t *testing.T, f GlobalFlags) {
	t.Helper()
	prev := *globalFlags
	*globalFlags = f
	t.Cleanup(func() { *globalFlags = prev })
}

func TestParseGlobalFlags_AcceptsTextAndJSON(t *testing.T) {
	for _, format := range []string{"text", "json"} {
		setFlags(t, GlobalFlags{OutputFormat: format})

		flags, err := ParseGlobalFlags(&cobra.Command{Use: "test"})
		require.NoError(t, err)
		assert.Equal(t, format, flags.OutputFormat)
	}
}

func TestParseGlobalFlags_RejectsUnknownFormat(t *testing.T) {
	setFlags(t, GlobalFlags{OutputFormat: "yaml"})

	_, err := ParseGlobalFlags(&cobra.Command{Use: "test"})
	require.Error(t, err)

	var cliErr *internal.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, internal.ExitConfigError, cliErr.Code)
}

func TestParseGlobalFlags_VerboseQuietConflict(t *testing.T) {
	setFlags(t, GlobalFlags{OutputFormat: "text", Verbose: true, Quiet: true})

	_, err := ParseGlobalFlags(&cobra.Command{Use: "test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be used together")
}

func TestGetOutputFormat(t *testing.T) {
	assert.Equal(t, internal.FormatJSON, (&GlobalFlags{OutputFormat: "json"}).GetOutputFormat())
	assert.Equal(t, internal.FormatText, (&GlobalFlags{OutputFormat: "text"}).GetOutputFormat())
	assert.Equal(t, internal.FormatText, (&GlobalFlags{}).GetOutputFormat())
}

func TestIsVerbose_QuietWins(t *testing.T) {
	assert.True(t, (&GlobalFlags{Verbose: true}).IsVerbose())
	assert.False(t, (&GlobalFlags{Verbose: true, Quiet: true}).IsVerbose())
}
