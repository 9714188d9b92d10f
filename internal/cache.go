package internal

import (
	"sort"
	"strconv"

	"github.com/palletworks/pallet/internal/errs"
	"github.com/palletworks/pallet/internal/logger"
	"github.com/palletworks/pallet/internal/metacache"
	"github.com/palletworks/pallet/internal/middleware"
	"github.com/palletworks/pallet/internal/settings"
	"github.com/palletworks/pallet/internal/utils"

	"github.com/spf13/cobra"
)

func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the download metadata cache",
	}

	// A parent's PreRunE never runs for subcommands, so each one gets
	// its own chain.
	withSettings := middleware.UseMiddlewareChain(middleware.LoadSettings)

	cmd.AddCommand(
		withSettings(newCacheListCmd)(),
		withSettings(newCacheShowCmd)(),
		withSettings(newCacheClearCmd)(),
	)

	return cmd
}

func newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached recipes and their download totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := middleware.Get[*settings.Settings](cmd, middleware.CtxKeySettings)
			if err != nil {
				return err
			}

			cache, err := metacache.NewStore(s.CacheFile).Load()
			if err != nil {
				return err
			}
			if len(cache) == 0 {
				logger.Info("Metadata cache %s is empty.", s.CacheFile)
				return nil
			}

			names := utils.Keys(cache)
			sort.Strings(names)

			table := logger.CreateTable([]string{"Recipe", "Cached At", "Files", "Size"})
			for _, name := range names {
				entry := cache[name]
				var total int64
				for _, m := range entry.Metadata {
					total += m.FileSize
				}
				if err := table.Append([]string{
					name,
					entry.Timestamp,
					strconv.Itoa(len(entry.Metadata)),
					utils.HumanSize(total),
				}); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}

func newCacheShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [recipe]",
		Short: "Show the cached download metadata for one recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := middleware.Get[*settings.Settings](cmd, middleware.CtxKeySettings)
			if err != nil {
				return err
			}

			cache, err := metacache.NewStore(s.CacheFile).Load()
			if err != nil {
				return err
			}

			entry, ok := cache[args[0]]
			if !ok {
				logger.Warn("No cache entry for %s.", args[0])
				return nil
			}

			logger.Info("%s cached at %s", args[0], entry.Timestamp)

			table := logger.CreateTable([]string{"File", "Size", "ETag", "Last-Modified"})
			for _, m := range entry.Metadata {
				if err := table.Append([]string{
					m.FilePath,
					utils.HumanSize(m.FileSize),
					m.ETag,
					m.LastModified,
				}); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear [recipes...]",
		Short: "Drop recipes from the metadata cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := middleware.Get[*settings.Settings](cmd, middleware.CtxKeySettings)
			if err != nil {
				return err
			}

			all, err := cmd.Flags().GetBool("all")
			if err != nil {
				return err
			}
			yes, err := cmd.Flags().GetBool("yes")
			if err != nil {
				return err
			}

			switch {
			case all && len(args) > 0:
				return middleware.FlagComboError(errs.AllWithNamedRecipes, "Clear", "cache clear")
			case !all && len(args) == 0:
				return middleware.FlagComboError(errs.ProvideRecipesOrAll, "Clear", "cache clear")
			case all && !yes:
				return middleware.FlagComboError(errs.ClearAllRequiresYes)
			}

			store := metacache.NewStore(s.CacheFile)

			if all {
				if err := store.Clear(); err != nil {
					return err
				}
				logger.Success("Cleared the metadata cache.")
				return nil
			}

			n, err := store.Delete(args...)
			if err != nil {
				return err
			}
			if n < len(args) {
				logger.Warn("%d of the named recipes had no cache entry.", len(args)-n)
			}
			logger.Success("Removed %d cache entries.", n)
			return nil
		},
	}

	cmd.Flags().BoolP("all", "a", false, "Drop every cache entry")
	cmd.Flags().BoolP("yes", "y", false, "Confirm clearing the whole cache")

	return cmd
}
