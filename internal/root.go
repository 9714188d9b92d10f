package internal

import (
	"context"
	"os"
	"strings"

	"github.com/palletworks/pallet/internal/checker"
	"github.com/palletworks/pallet/internal/logger"
	"github.com/palletworks/pallet/internal/notifier"

	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pallet",
		Short: "Batch runner for AutoPkg recipes",
		Long: `Pallet drives autopkg across many recipes at once: it checks each
recipe for new downloads, runs the ones with work to do, and keeps a
metadata cache so unchanged downloads are skipped on ephemeral runners.`,
		Example: `pallet run Firefox.download.recipe GoogleChrome.pkg.recipe`,
		Run: func(cmd *cobra.Command, _ []string) {
			versionFlag, _ := cmd.Flags().GetBool("version")
			if versionFlag {
				checker.PrintVersion()
				return
			}
			_ = cmd.Help()
		},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			configureLogging(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			noUpdate, _ := cmd.Flags().GetBool("no-update-check")

			envNoUpdate := strings.TrimSpace(os.Getenv("PALLET_NO_UPDATE_CHECK")) == "1"

			v, _ := cmd.Flags().GetBool("version")

			name := cmd.Name()

			switch {
			case name == "help",
				name == "completion",
				name == cobra.ShellCompRequestCmd,
				name == "init",
				name == "pallet" && v,
				envNoUpdate || noUpdate:
				return nil
			}

			check := checker.New(nil, nil)
			if _, err := check.Execute(cmd.Context(), false); err != nil {
				logger.Debug("Failed to check for updates: %v", err)
				return nil
			}

			notifier.DisplayUpdateNotification()

			return nil
		},
		// main owns error printing, so flag-combo messages that were
		// already logged do not show up twice.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().Bool("version", false, "Print version information")

	cmd.PersistentFlags().CountP("verbose", "v", "Increase verbosity; also passed through to autopkg")
	cmd.PersistentFlags().String("log-file", "", "Also write logs to this file")
	cmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON")
	cmd.PersistentFlags().String("autopkg", "", "Command that launches autopkg, e.g. \"uv run autopkg\"")
	cmd.PersistentFlags().String("cache-file", "", "Path to the download metadata cache")
	cmd.PersistentFlags().String("report-dir", "", "Directory for per-recipe report plists")
	cmd.PersistentFlags().Int("max-parallel", 0, "Maximum recipes processed at once")
	cmd.PersistentFlags().Int("timeout", 0, "Per-invocation autopkg timeout in seconds")
	cmd.PersistentFlags().Bool("no-update-check", false, "Skip update check")

	RegisterSubCommands(cmd)

	return cmd
}

func configureLogging(cmd *cobra.Command) {
	verbosity, _ := cmd.Flags().GetCount("verbose")
	logFile, _ := cmd.Flags().GetString("log-file")
	jsonLogs, _ := cmd.Flags().GetBool("json-logs")

	logger.ConfigureFromVerbosity(verbosity, logFile, jsonLogs)
}

func Execute(ctx context.Context) error {
	root := NewRootCmd()

	if os.Getenv("COMP_LINE") != "" ||
		(len(os.Args) > 1 && strings.HasPrefix(os.Args[1], "__complete")) {
		return root.ExecuteContext(ctx)
	}

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Debug("Failed to execute root command: %v", err)
		return err
	}
	return nil
}
