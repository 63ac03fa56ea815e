package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danve93/Amber-sub001/internal/types"
)

// Exit codes returned by the amber binary. Scripts depend on these staying
// stable, so append new codes rather than renumbering.
const (
	ExitSuccess       = 0
	ExitError         = 1
	ExitTimeout       = 2
	ExitCancelled     = 3
	ExitConfigError   = 10
	ExitDatabaseError = 11
)

// CLIError pairs an error with the exit code the process should return.
type CLIError struct {
	Code    int
	Message string
	Cause   error
}

func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error { return e.Cause }

// NewCLIError returns a CLIError without an underlying cause.
func NewCLIError(code int, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapError attaches an exit code and message to an underlying error.
func WrapError(code int, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Cause: err}
}

// HandleError prints err to the command's error stream and returns the exit
// code to pass to os.Exit. Context sentinels win over wrapped codes so a
// Ctrl-C always exits as cancelled no matter where it surfaced.
func HandleError(cmd *cobra.Command, err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.Canceled):
		cmd.PrintErrln("Operation cancelled")
		return ExitCancelled
	case errors.Is(err, context.DeadlineExceeded):
		cmd.PrintErrln("Operation timed out")
		return ExitTimeout
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		cmd.PrintErrln("Error:", cliErr.Message)
		// The cause is usually driver noise; only surface it on -v.
		if cliErr.Cause != nil && flagChanged(cmd, "verbose") {
			cmd.PrintErrln("Cause:", cliErr.Cause)
		}
		return cliErr.Code
	}

	cmd.PrintErrln("Error:", err)
	if code, ok := types.CodeOf(err); ok {
		return exitCodeFor(code)
	}
	return ExitError
}

func flagChanged(cmd *cobra.Command, name string) bool {
	flag := cmd.Flag(name)
	return flag != nil && flag.Changed
}

// exitCodeFor buckets platform error codes by their prefix. Config problems
// and store problems get distinct codes so wrappers can tell a bad flag from
// a dead database.
func exitCodeFor(code types.ErrorCode) int {
	s := string(code)
	switch {
	case strings.HasPrefix(s, "CONFIG_"):
		return ExitConfigError
	case strings.HasPrefix(s, "DB_"), strings.HasPrefix(s, "GRAPH_"):
		return ExitDatabaseError
	default:
		return ExitError
	}
}
