package utils

import (
	"github.com/palletworks/pallet/internal/logger"
)

// Try runs a cleanup func and demotes its error to a debug line, for
// defers where failure is survivable.
func Try(f func() error) {
	if err := f(); err != nil {
		logger.Debug("deferred call failed: %v", err)
	}
}
