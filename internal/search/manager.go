// Package search hands a query to autopkg's own recipe search, which
// knows the GitHub recipe repos, and streams the answer through.
package search

import (
	"context"

	"github.com/palletworks/pallet/internal/logger"
	"github.com/palletworks/pallet/internal/runner"
	"github.com/palletworks/pallet/internal/settings"
)

type Searcher struct {
	runner   runner.CommandRunner
	settings *settings.Settings
}

func New(s *settings.Settings, r runner.CommandRunner) *Searcher {
	if r == nil {
		r = runner.ExecRunner{}
	}
	return &Searcher{runner: r, settings: s}
}

// Execute runs `autopkg search` with the terminal attached, so paging
// and coloring behave exactly as they would first-hand. A non-zero
// exit is reported but not escalated; autopkg already printed why.
func (s *Searcher) Execute(ctx context.Context, term string, pathOnly bool) error {
	argv, err := s.settings.AutoPkgArgv()
	if err != nil {
		return err
	}

	args := append(argv[1:], "search", term)
	if pathOnly {
		args = append(args, "--path-only")
	}

	res, err := s.runner.Run(ctx, runner.Options{
		Timeout: s.settings.Timeout(),
		Mode:    runner.Stream,
	}, argv[0], args...)
	if err != nil {
		return err
	}

	if res.TimedOut {
		logger.Warn("autopkg search timed out after %s.", s.settings.Timeout())
	} else if res.ExitCode != 0 {
		logger.Warn("autopkg search exited with code %d.", res.ExitCode)
	}
	return nil
}
