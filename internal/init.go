package internal

import (
	"github.com/palletworks/pallet/internal/initiator"

	"github.com/spf13/cobra"
)

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default pallet configuration",
		Long: `Write the default pallet configuration.
This command will:
- Create config.yml in ~/.config/pallet
- Create the update-check state file in ~/.local/state/pallet
- Ask before overwriting an existing configuration`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}

			return initiator.New(nil).Execute(force)
		},
	}

	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing configuration without asking")

	return cmd
}
