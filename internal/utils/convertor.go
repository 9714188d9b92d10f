package utils

import "github.com/palletworks/pallet/internal/config"

// NewUpdateState derives the next persisted state from a base.
func NewUpdateState(base config.UpdateState, isNewer bool, version string) config.UpdateState {
	s := base
	s.UpdateAvailable = isNewer
	s.LatestVersion = version
	return s
}
