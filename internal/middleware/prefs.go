package middleware

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/palletworks/pallet/internal/logger"
	"github.com/palletworks/pallet/internal/prefs"
	"github.com/palletworks/pallet/internal/settings"
)

// LoadPrefs reads autopkg's own preferences and stores them on the
// command context. A missing plist falls back to the stock defaults;
// a present but unreadable one is fatal.
func LoadPrefs(cmd *cobra.Command, args []string, next func(cmd *cobra.Command, args []string) error) error {
	s, err := Get[*settings.Settings](cmd, CtxKeySettings)
	if err != nil {
		return err
	}

	p, err := prefs.Load(s.PrefsPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		logger.Debug("No autopkg preferences at %s; using defaults.", s.PrefsPath)
		p = prefs.Defaults()
	}

	ctx := context.WithValue(cmd.Context(), CtxKeyPrefs, p)
	cmd.SetContext(ctx)

	return next(cmd, args)
}
