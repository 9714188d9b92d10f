package internal

import (
	"errors"
	"os"
	"sort"

	"github.com/palletworks/pallet/internal/errs"
	"github.com/palletworks/pallet/internal/logger"
	"github.com/palletworks/pallet/internal/metacache"
	"github.com/palletworks/pallet/internal/middleware"
	"github.com/palletworks/pallet/internal/orchestrator"
	"github.com/palletworks/pallet/internal/settings"
	"github.com/palletworks/pallet/internal/utils"

	"github.com/spf13/cobra"
)

func NewPrimeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prime [recipes...]",
		Short: "Recreate download placeholders from the metadata cache",
		Long: `Recreates placeholder files for cached downloads so autopkg's check
phase sees them and skips unchanged downloads. Placeholders are sparse
files that carry the cached size, etag and last-modified.

Runs do this on their own; prime exists for warming a fresh runner
before a batch, or without running anything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := middleware.Get[*settings.Settings](cmd, middleware.CtxKeySettings)
			if err != nil {
				return err
			}

			listFile, err := cmd.Flags().GetString("recipe-list")
			if err != nil {
				return err
			}
			all, err := cmd.Flags().GetBool("all")
			if err != nil {
				return err
			}

			if all && (len(args) > 0 || listFile != "") {
				return middleware.FlagComboError(errs.AllWithNamedRecipes, "Prime", "prime")
			}

			names, err := orchestrator.GatherRecipes(args, listFile)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return err
				}
				return middleware.FlagComboError(errs.ListFileWithBadShape, listFile)
			}
			if !all && len(names) == 0 {
				return middleware.FlagComboError(errs.ProvideRecipesOrAll, "Prime", "prime")
			}

			cache, err := metacache.NewStore(s.CacheFile).Load()
			if err != nil {
				return err
			}

			if all {
				names = utils.Keys(cache)
				sort.Strings(names)
				if len(names) == 0 {
					logger.Info("Metadata cache %s is empty; nothing to prime.", s.CacheFile)
					return nil
				}
			}

			n, err := metacache.Synthesize(names, cache)
			if err != nil {
				return err
			}

			logger.Success("Primed %d placeholder file(s) for %d recipe(s).", n, len(names))
			return nil
		},
	}

	cmd.Flags().StringP("recipe-list", "l", "", "JSON file holding an array of recipe names")
	cmd.Flags().BoolP("all", "a", false, "Prime every recipe in the metadata cache")

	return cmd
}
