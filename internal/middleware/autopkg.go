package middleware

import (
	"github.com/spf13/cobra"

	"github.com/palletworks/pallet/internal/autopkg"
	"github.com/palletworks/pallet/internal/logger"
	"github.com/palletworks/pallet/internal/settings"
)

// RequireAutoPkg refuses to run commands that drive the external tool
// when the configured launcher cannot be found.
func RequireAutoPkg(cmd *cobra.Command, args []string, next func(cmd *cobra.Command, args []string) error) error {
	s, err := Get[*settings.Settings](cmd, CtxKeySettings)
	if err != nil {
		return err
	}

	if !autopkg.New(nil, s).Installed() {
		logger.LogError("autopkg is required but %q was not found on PATH.", s.AutoPkgCommand)
		logger.Warn("Install it from https://github.com/autopkg/autopkg/releases")
		logger.Warn("or point pallet at a launcher: pallet --autopkg \"uv run autopkg\" ...")
		return ErrLogged
	}

	return next(cmd, args)
}
