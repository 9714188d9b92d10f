package internal

import (
	"errors"
	"fmt"
	"os"

	"github.com/palletworks/pallet/internal/errs"
	"github.com/palletworks/pallet/internal/middleware"
	"github.com/palletworks/pallet/internal/orchestrator"
	"github.com/palletworks/pallet/internal/prefs"
	"github.com/palletworks/pallet/internal/settings"

	"github.com/spf13/cobra"
)

func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [recipes...]",
		Short: "Verify recipe trust info",
		Long: `Checks each recipe's parent trust info without running it. With
--update, recipes that fail verification get their trust info updated
and are verified again.

Examples:
    pallet verify Firefox.download.recipe
    pallet verify --recipe-list recipes.json --update`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := middleware.Get[*settings.Settings](cmd, middleware.CtxKeySettings)
			if err != nil {
				return err
			}
			p, err := middleware.Get[*prefs.Prefs](cmd, middleware.CtxKeyPrefs)
			if err != nil {
				return err
			}

			listFile, err := cmd.Flags().GetString("recipe-list")
			if err != nil {
				return err
			}
			update, err := cmd.Flags().GetBool("update")
			if err != nil {
				return err
			}

			names, err := orchestrator.GatherRecipes(args, listFile)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return err
				}
				return middleware.FlagComboError(errs.ListFileWithBadShape, listFile)
			}
			if len(names) == 0 {
				return middleware.FlagComboError(errs.NoRecipesGiven, "verify")
			}

			coord, err := orchestrator.New(nil, s, p)
			if err != nil {
				return err
			}
			defer coord.Cleanup()

			outcomes := coord.VerifyBatch(cmd.Context(), names, update)
			orchestrator.RenderTrustSummary(outcomes)

			if n := orchestrator.TrustFailures(outcomes); n > 0 {
				return fmt.Errorf("%d of %d recipes failed trust verification", n, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringP("recipe-list", "l", "", "JSON file holding an array of recipe names")
	cmd.Flags().BoolP("update", "u", false, "Update trust info for recipes that fail verification")

	return cmd
}
