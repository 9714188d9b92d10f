package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/palletworks/pallet/internal/config"
)

const (
	stateDir        = ".local/state/pallet"
	updateStateFile = "update-check.json"

	// CheckExpiry backdates a fresh state file, so the first real
	// invocation performs a check.
	CheckExpiry = 24 * time.Hour
)

// UpdateStatePath returns where the update check persists its state.
func UpdateStatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, stateDir, updateStateFile), nil
}

func DefaultUpdateState() config.UpdateState {
	return config.UpdateState{
		LastChecked: time.Now().Add(-CheckExpiry).UTC(),
	}
}

// EnsureUpdateStateFileExists creates the state file with a stale
// timestamp when missing, and returns its path either way.
func EnsureUpdateStateFileExists() (string, error) {
	path, err := UpdateStatePath()
	if err != nil {
		return "", err
	}

	if ok, _ := FileExists(path); !ok {
		if err := CreateFile(path, DefaultUpdateState(), FileTypeJSON, 0o644); err != nil {
			return "", fmt.Errorf("failed to create update state file: %w", err)
		}
	}

	return path, nil
}
