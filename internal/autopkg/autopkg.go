package autopkg

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/palletworks/pallet/internal/logger"
	"github.com/palletworks/pallet/internal/runner"
	"github.com/palletworks/pallet/internal/settings"
	"github.com/palletworks/pallet/internal/utils"
)

// versionTimeout bounds the preflight `autopkg version` call; it
// answers in well under a second when the tool is healthy.
const versionTimeout = 30 * time.Second

var versionPattern = regexp.MustCompile(`\d+(\.\d+)+`)

// Client answers questions about the installed autopkg launcher.
type Client struct {
	runner   runner.CommandRunner
	settings *settings.Settings
}

func New(r runner.CommandRunner, s *settings.Settings) *Client {
	if r == nil {
		r = runner.ExecRunner{}
	}
	return &Client{runner: r, settings: s}
}

// Installed reports whether the configured launcher resolves to an
// executable. Wrapper commands ("uv run autopkg") are judged by their
// first word.
func (c *Client) Installed() bool {
	argv, err := c.settings.AutoPkgArgv()
	if err != nil {
		return false
	}
	return utils.CommandExists(argv[0])
}

// Version asks the launcher for its version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	argv, err := c.settings.AutoPkgArgv()
	if err != nil {
		return "", err
	}
	args := append(argv[1:], "version")

	res, err := c.runner.Run(ctx, runner.Options{Timeout: versionTimeout, Check: true}, argv[0], args...)
	if err != nil {
		return "", fmt.Errorf("failed to query autopkg version: %w", err)
	}

	version := versionPattern.FindString(res.Stdout)
	if version == "" {
		return "", fmt.Errorf("could not parse autopkg version from %q", strings.TrimSpace(res.Stdout))
	}
	return version, nil
}

// EnsureCompatible warns when a recipe asks for a newer autopkg than
// the one installed. The floor is advisory here; autopkg enforces it
// for real at run time.
func EnsureCompatible(installed, minimum, recipeName string) {
	if minimum == "" || installed == "" {
		return
	}

	cmp, err := utils.CompareVersions(installed, minimum)
	if err != nil {
		logger.Debug("Skipping version check for %s: %v", recipeName, err)
		return
	}

	if cmp < 0 {
		logger.Warn("%s requires autopkg >= %s, but %s is installed.", recipeName, minimum, installed)
	}
}
