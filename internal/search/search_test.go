package search_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palletworks/pallet/internal/errs"
	"github.com/palletworks/pallet/internal/logger"
	"github.com/palletworks/pallet/internal/runner"
	"github.com/palletworks/pallet/internal/search"
	"github.com/palletworks/pallet/internal/settings"
)

func TestMain(m *testing.M) {
	logger.UseTestMode()
	os.Exit(m.Run())
}

func testSettings() *settings.Settings {
	return &settings.Settings{
		AutoPkgCommand: "autopkg",
		MaxParallel:    1,
		TimeoutSeconds: 60,
	}
}

func TestExecutePassesTermThrough(t *testing.T) {
	mock := runner.NewMockRunner()
	s := search.New(testSettings(), mock)

	require.NoError(t, s.Execute(context.Background(), "firefox", false))

	require.Len(t, mock.Commands, 1)
	cmd := mock.Commands[0]
	assert.Equal(t, "autopkg", cmd.Name)
	assert.Equal(t, []string{"search", "firefox"}, cmd.Args)
	assert.Equal(t, runner.Stream, cmd.Opts.Mode)
}

func TestExecutePathOnlyFlag(t *testing.T) {
	mock := runner.NewMockRunner()
	s := search.New(testSettings(), mock)

	require.NoError(t, s.Execute(context.Background(), "firefox", true))

	require.Len(t, mock.Commands, 1)
	assert.Equal(t, []string{"search", "firefox", "--path-only"}, mock.Commands[0].Args)
}

func TestExecuteWrapperCommand(t *testing.T) {
	mock := runner.NewMockRunner()
	cfg := testSettings()
	cfg.AutoPkgCommand = "uv run autopkg"
	s := search.New(cfg, mock)

	require.NoError(t, s.Execute(context.Background(), "zoom", false))

	require.Len(t, mock.Commands, 1)
	cmd := mock.Commands[0]
	assert.Equal(t, "uv", cmd.Name)
	assert.Equal(t, []string{"run", "autopkg", "search", "zoom"}, cmd.Args)
}

func TestExecuteToolFailureIsNotFatal(t *testing.T) {
	mock := runner.NewMockRunner()
	mock.AddResponse("autopkg|search|nothing", runner.Result{ExitCode: 1}, nil)
	s := search.New(testSettings(), mock)

	assert.NoError(t, s.Execute(context.Background(), "nothing", false))
}

func TestExecutePropagatesSpawnErrors(t *testing.T) {
	mock := runner.NewMockRunner()
	mock.ResponseFunc = func(name string, args ...string) (runner.Result, error) {
		return runner.Result{}, &errs.CommandError{
			Cmd: "autopkg search",
			Err: errors.New("executable file not found in $PATH"),
		}
	}
	s := search.New(testSettings(), mock)

	err := s.Execute(context.Background(), "firefox", false)
	require.Error(t, err)

	var cmdErr *errs.CommandError
	assert.ErrorAs(t, err, &cmdErr)
}
