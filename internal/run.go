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

func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [recipes...]",
		Short: "Run recipes and cache their download metadata",
		Long: `Runs each recipe through autopkg: a check phase first, then a full run
only when the check found something new to download. Download metadata is
persisted to the cache between the two phases, so an interrupted batch
still remembers what it saw.

Recipe names are merged from the arguments, the --recipe-list file and
the RECIPE environment variable.

Examples:
    pallet run Firefox.download.recipe
    pallet run --recipe-list recipes.json --verify-trust
    RECIPE=GoogleChrome.pkg.recipe pallet run`,
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
			verifyTrust, err := cmd.Flags().GetBool("verify-trust")
			if err != nil {
				return err
			}
			noPrime, err := cmd.Flags().GetBool("no-prime")
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
				return middleware.FlagComboError(errs.NoRecipesGiven, "run")
			}

			coord, err := orchestrator.New(nil, s, p)
			if err != nil {
				return err
			}
			defer coord.Cleanup()

			if !noPrime {
				if _, err := coord.Prime(names); err != nil {
					return err
				}
			}

			outcomes := coord.RunBatch(cmd.Context(), names, verifyTrust)
			orchestrator.RenderRunSummary(outcomes)

			if n := orchestrator.Failures(outcomes); n > 0 {
				return fmt.Errorf("%d of %d recipes did not complete", n, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringP("recipe-list", "l", "", "JSON file holding an array of recipe names")
	cmd.Flags().BoolP("verify-trust", "t", false, "Verify trust info and skip recipes that fail")
	cmd.Flags().Bool("no-prime", false, "Do not recreate cached download placeholders first")

	return cmd
}
