// Package checker asks GitHub whether a newer release exists, at most
// once per check period, and persists the verdict for the notifier.
package checker

import (
	"context"
	"strings"
	"time"

	"github.com/palletworks/pallet/internal/config"
	"github.com/palletworks/pallet/internal/logger"
	"github.com/palletworks/pallet/internal/service"
	"github.com/palletworks/pallet/internal/utils"
)

type Controller struct {
	Config     config.Config
	HTTPClient service.HTTPClient
}

type GitHubRelease struct {
	TagName     string `json:"tag_name"`
	Name        string `json:"name"`
	Draft       bool   `json:"draft"`
	Prerelease  bool   `json:"prerelease"`
	PublishedAt string `json:"published_at"`
}

func New(conf *config.Config, client service.HTTPClient) *Controller {
	if conf == nil {
		defaultConfig := config.DefaultCheckerConfig()
		conf = &defaultConfig
	}
	if client == nil {
		client = service.NewHTTPClient(30 * time.Second)
	}
	return &Controller{Config: *conf, HTTPClient: client}
}

// Execute refreshes the update state when it has gone stale (or when
// forced) and returns the current state. Network trouble is never
// fatal; the cached state is returned unchanged.
func (c *Controller) Execute(ctx context.Context, force bool) (config.UpdateState, error) {
	state := c.loadState()

	if !force && time.Since(state.LastChecked) < c.Config.CheckFrequency {
		return state, nil
	}

	var release GitHubRelease
	if err := service.FetchJSON(ctx, c.HTTPClient, c.Config.ReleaseURL, &release); err != nil {
		logger.Debug("Failed to check for updates: %v", err)
		return state, nil
	}

	if release.Draft || release.Prerelease {
		logger.Debug("Latest release %s is not stable yet; skipping.", release.TagName)
		return state, nil
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	state = utils.NewUpdateState(
		config.UpdateState{LastChecked: time.Now().UTC()},
		isNewer(latest), latest,
	)

	if err := c.saveState(state); err != nil {
		logger.Debug("Failed to save update state: %v", err)
	}
	return state, nil
}

// isNewer compares a release version against the running build. Dev
// builds have no dotted version and never report an update.
func isNewer(latest string) bool {
	cmp, err := utils.CompareVersions(latest, Version)
	if err != nil {
		logger.Debug("Skipping version comparison for %q vs %q: %v", latest, Version, err)
		return false
	}
	return cmp > 0
}

func (c *Controller) loadState() config.UpdateState {
	path, err := utils.EnsureUpdateStateFileExists()
	if err != nil {
		logger.Debug("Failed to ensure update state file exists: %v", err)
		return utils.DefaultUpdateState()
	}

	var state config.UpdateState
	if err := utils.FileReader(path, utils.FileTypeJSON, &state); err != nil {
		logger.Debug("Failed to read update state: %v", err)
		return utils.DefaultUpdateState()
	}
	return state
}

func (c *Controller) saveState(state config.UpdateState) error {
	path, err := utils.UpdateStatePath()
	if err != nil {
		return err
	}
	return utils.CreateFile(path, state, utils.FileTypeJSON, 0o644)
}
