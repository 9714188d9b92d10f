package internal

import (
	"github.com/palletworks/pallet/internal/middleware"
	"github.com/spf13/cobra"
)

var defaultCommands = []middleware.CommandFactory{
	NewInitCmd,
	middleware.UseMiddlewareChain(middleware.LoadSettings, middleware.RequireAutoPkg, middleware.LoadPrefs)(NewRunCmd),
	middleware.UseMiddlewareChain(middleware.LoadSettings, middleware.RequireAutoPkg, middleware.LoadPrefs)(NewVerifyCmd),
	middleware.UseMiddlewareChain(middleware.LoadSettings, middleware.RequireAutoPkg, middleware.LoadPrefs)(NewUpdateTrustCmd),
	middleware.UseMiddlewareChain(middleware.LoadSettings, middleware.RequireAutoPkg)(NewSearchCmd),
	NewCacheCmd,
	middleware.UseMiddlewareChain(middleware.LoadSettings)(NewPrimeCmd),
	NewRecipesCmd,
}

func RegisterSubCommands(cmd *cobra.Command) {
	for _, factory := range defaultCommands {
		cmd.AddCommand(factory())
	}
}
