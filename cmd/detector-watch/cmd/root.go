package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/people-detector/internal/config"
	"github.com/oshokin/people-detector/internal/logger"
	"github.com/oshokin/people-detector/internal/service/watcher"
	"github.com/oshokin/people-detector/internal/version"
)

var (
	// configPath stores the configuration file path.
	configPath string
	// interval between state polls.
	interval time.Duration
	// logLevel overrides the watcher's log level.
	logLevel string
	// debug logs state changes without running hooks.
	debug bool

	// rootCmd represents the base command for watching the detector.
	rootCmd = &cobra.Command{
		Use:   "detector-watch [server-address]",
		Short: "Follow the detector state and run local hooks.",
		Long: `Polls the detector server and runs the hook configured for each newly observed
state on this machine. The state seen on the first poll is only logged.

Server address can be provided as argument or loaded from configuration file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if logLevel != "" {
				level, ok := logger.ParseLogLevel(logLevel)
				if !ok {
					return fmt.Errorf("unknown log level %q", logLevel)
				}

				ctx = logger.WithContextLevel(ctx, level)
			}

			var serverAddress string
			if len(args) > 0 {
				serverAddress = args[0]
			}

			return watcher.Run(ctx, &watcher.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				PollInterval:  interval,
				Debug:         debug,
			})
		},
	}
)

// Execute runs the detector-watch CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().DurationVarP(&interval, "interval", "i", watcher.DefaultPollInterval, "state poll interval")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level for this watcher (debug, info, warn, error)")

	// Hidden debug flag to skip hooks.
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "log state changes without running hooks")

	err := rootCmd.Flags().MarkHidden("debug")
	if err != nil {
		panic(err)
	}
}
