// Package initiator writes the starter configuration for new setups.
package initiator

import (
	"fmt"
	"os"

	"github.com/palletworks/pallet/internal/logger"
	"github.com/palletworks/pallet/internal/prompter"
	"github.com/palletworks/pallet/internal/settings"
	"github.com/palletworks/pallet/internal/utils"
)

type Initiator struct {
	prompter prompter.Prompter
}

func New(p prompter.Prompter) *Initiator {
	if p == nil {
		p = prompter.New(os.Stdin, os.Stdout)
	}
	return &Initiator{prompter: p}
}

// Execute writes the default config file and seeds the update-check
// state. An existing config is only replaced after confirmation, or
// unconditionally with force.
func (i *Initiator) Execute(force bool) error {
	path, err := settings.ConfigPath()
	if err != nil {
		return err
	}

	if ok, _ := utils.FileExists(path); ok && !force {
		overwrite, err := i.prompter.Confirm(fmt.Sprintf("Configuration already exists at %s. Overwrite?", path))
		if err != nil {
			return err
		}
		if !overwrite {
			logger.Info("Keeping the existing configuration.")
			return nil
		}
	}

	if err := settings.Default().Save(); err != nil {
		return err
	}

	if _, err := utils.EnsureUpdateStateFileExists(); err != nil {
		return fmt.Errorf("failed to ensure update state file exists: %w", err)
	}

	logger.Success("Wrote default configuration to %s", path)
	return nil
}
