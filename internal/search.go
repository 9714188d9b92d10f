package internal

import (
	"github.com/palletworks/pallet/internal/middleware"
	"github.com/palletworks/pallet/internal/search"
	"github.com/palletworks/pallet/internal/settings"

	"github.com/spf13/cobra"
)

func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Search GitHub for recipes",
		Long: `Passes the term to autopkg search, which looks through the public
recipe repositories on GitHub.

Examples:
    pallet search firefox
    pallet search zoom --path-only`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := middleware.Get[*settings.Settings](cmd, middleware.CtxKeySettings)
			if err != nil {
				return err
			}

			pathOnly, err := cmd.Flags().GetBool("path-only")
			if err != nil {
				return err
			}

			return search.New(s, nil).Execute(cmd.Context(), args[0], pathOnly)
		},
	}

	cmd.Flags().BoolP("path-only", "p", false, "Print only the recipe paths")

	return cmd
}
