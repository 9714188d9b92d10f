package config

import "time"

// Config tunes the new-version check that runs after commands finish.
type Config struct {
	ReleaseURL     string
	CheckFrequency time.Duration
}

// UpdateState is what the checker persists between invocations, so at
// most one network call happens per check period.
type UpdateState struct {
	LastChecked     time.Time `json:"last_checked"`
	UpdateAvailable bool      `json:"update_available,omitempty"`
	LatestVersion   string    `json:"latest_version,omitempty"`
}

func DefaultCheckerConfig() Config {
	return Config{
		ReleaseURL:     "https://api.github.com/repos/palletworks/pallet/releases/latest",
		CheckFrequency: 24 * time.Hour,
	}
}
