package middleware

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/palletworks/pallet/internal/settings"
)

// LoadSettings builds the effective settings from the config file, the
// environment and the persistent flags, and stores them on the command
// context for the command and later middlewares.
func LoadSettings(cmd *cobra.Command, args []string, next func(cmd *cobra.Command, args []string) error) error {
	flags := cmd.Flags()

	verbosity, _ := flags.GetCount("verbose")
	logFile, _ := flags.GetString("log-file")
	autopkgCmd, _ := flags.GetString("autopkg")
	cacheFile, _ := flags.GetString("cache-file")
	reportDir, _ := flags.GetString("report-dir")
	maxParallel, _ := flags.GetInt("max-parallel")
	timeout, _ := flags.GetInt("timeout")

	s, err := settings.Load(settings.Overrides{
		AutoPkgCommand: autopkgCmd,
		CacheFile:      cacheFile,
		ReportDir:      reportDir,
		MaxParallel:    maxParallel,
		TimeoutSeconds: timeout,
		Verbosity:      verbosity,
		LogFile:        logFile,
	})
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := context.WithValue(cmd.Context(), CtxKeySettings, s)
	cmd.SetContext(ctx)

	return next(cmd, args)
}
