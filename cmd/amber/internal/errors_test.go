package internal

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/danve93/Amber-sub001/internal/types"
)

func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{Use: "test"}
	var errOut bytes.Buffer
	cmd.SetErr(&errOut)
	cmd.Flags().BoolP("verbose", "v", false, "")
	return cmd, &errOut
}

func TestHandleError_NilError(t *testing.T) {
	cmd, errOut := newTestCmd()

	code := HandleError(cmd, nil)

	assert.Equal(t, ExitSuccess, code)
	assert.Empty(t, errOut.String())
}

func TestHandleError_ContextCancelled(t *testing.T) {
	cmd, errOut := newTestCmd()

	code := HandleError(cmd, context.Canceled)

	assert.Equal(t, ExitCancelled, code)
	assert.Contains(t, errOut.String(), "cancelled")
}

func TestHandleError_DeadlineExceeded(t *testing.T) {
	cmd, errOut := newTestCmd()

	code := HandleError(cmd, context.DeadlineExceeded)

	assert.Equal(t, ExitTimeout, code)
	assert.Contains(t, errOut.String(), "timed out")
}

func TestHandleError_CLIError(t *testing.T) {
	cmd, errOut := newTestCmd()

	code := HandleError(cmd, NewCLIError(ExitConfigError, "config file missing"))

	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, errOut.String(), "config file missing")
}

func TestHandleError_CLIErrorCauseOnlyWhenVerbose(t *testing.T) {
	cmd, errOut := newTestCmd()
	err := WrapError(ExitError, "outer", errors.New("inner detail"))

	HandleError(cmd, err)
	assert.NotContains(t, errOut.String(), "inner detail")

	errOut.Reset()
	_ = cmd.Flags().Set("verbose", "true")
	HandleError(cmd, err)
	assert.Contains(t, errOut.String(), "inner detail")
}

func TestHandleError_PlatformErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"config code", types.NewError(types.CONFIG_NOT_FOUND, "no config"), ExitConfigError},
		{"database code", types.NewError(types.DB_QUERY_FAILED, "query failed"), ExitDatabaseError},
		{"graph code", types.NewError(types.ErrorCode("GRAPH_CONNECTION_FAILED"), "down"), ExitDatabaseError},
		{"other code", types.NewError(types.INTERNAL_ERROR, "boom"), ExitError},
		{"plain error", errors.New("plain"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _ := newTestCmd()
			assert.Equal(t, tt.want, HandleError(cmd, tt.err))
		})
	}
}
