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

func NewUpdateTrustCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-trust [recipes...]",
		Short: "Update recipe trust info",
		Long: `Rewrites each recipe override's trust info to match the current
parent recipes. Run this after reviewing why verification failed.`,
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

			names, err := orchestrator.GatherRecipes(args, listFile)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return err
				}
				return middleware.FlagComboError(errs.ListFileWithBadShape, listFile)
			}
			if len(names) == 0 {
				return middleware.FlagComboError(errs.NoRecipesGiven, "update-trust")
			}

			coord, err := orchestrator.New(nil, s, p)
			if err != nil {
				return err
			}
			defer coord.Cleanup()

			outcomes := coord.UpdateTrustBatch(cmd.Context(), names)
			orchestrator.RenderTrustSummary(outcomes)

			if n := orchestrator.TrustFailures(outcomes); n > 0 {
				return fmt.Errorf("%d of %d recipes could not update trust info", n, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringP("recipe-list", "l", "", "JSON file holding an array of recipe names")

	return cmd
}
