package internal

import (
	"errors"
	"os"

	"github.com/palletworks/pallet/internal/logger"
	"github.com/palletworks/pallet/internal/recipelist"

	"github.com/spf13/cobra"
)

func NewRecipesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipes",
		Short: "Manage the recipe list file",
		Long: `Manages the JSON recipe list that run, verify and update-trust accept
through --recipe-list. The file is a plain JSON array of recipe names.`,
	}

	cmd.PersistentFlags().StringP("file", "f", "recipes.json", "Path to the recipe list file")

	cmd.AddCommand(newRecipesShowCmd(), newRecipesAddCmd(), newRecipesRemoveCmd())

	return cmd
}

func newRecipesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the recipes in the list file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := cmd.Flags().GetString("file")
			if err != nil {
				return err
			}

			names, err := recipelist.Load(file)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					logger.Info("No recipe list at %s.", file)
					return nil
				}
				return err
			}

			for _, name := range names {
				logger.Info("%s", name)
			}
			return nil
		},
	}
}

func newRecipesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add [recipes...]",
		Short: "Add recipes to the list file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := cmd.Flags().GetString("file")
			if err != nil {
				return err
			}

			_, err = recipelist.Add(file, args)
			return err
		},
	}
}

func newRecipesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [recipes...]",
		Short: "Remove recipes from the list file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := cmd.Flags().GetString("file")
			if err != nil {
				return err
			}

			_, err = recipelist.Remove(file, args)
			return err
		},
	}
}
