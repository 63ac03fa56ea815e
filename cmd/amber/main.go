package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/danve93/Amber-sub001/cmd/amber/internal"
)

func main() {
	// Panic recovery so unexpected failures still exit with a useful message
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", r)
			if globalFlags.IsVerbose() {
				fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			} else {
				fmt.Fprintln(os.Stderr, "Run with --verbose for stack trace")
			}
			os.Exit(internal.ExitError)
		}
	}()

	ctx := context.Background()

	// Execute handles signal notification internally via signal.NotifyContext
	if err := Execute(ctx); err != nil {
		os.Exit(internal.HandleError(rootCmd, err))
	}

	os.Exit(internal.ExitSuccess)
}
