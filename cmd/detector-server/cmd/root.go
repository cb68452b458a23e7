package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/people-detector/internal/config"
	"github.com/oshokin/people-detector/internal/service/server"
	"github.com/oshokin/people-detector/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// stateFile path where the detector snapshot is persisted.
	stateFile string
	// noHooks disables state hooks on the server host.
	noHooks bool

	// rootCmd represents the base command for running the detector server.
	rootCmd = &cobra.Command{
		Use:   "detector-server [listen-address]",
		Short: "Run the people detector and its gRPC API.",
		Long: `Starts the people detector: a Ready -> Delay -> Fire -> ReArm cycle driven by
Trigger, End Time and Reset actions received over gRPC.

Timed states leave on their own after the durations in the detector section of
the configuration file; a zero duration waits for an explicit End Time action.
Every transition is persisted to the state file, published to MQTT when a broker
is configured, and runs the hook configured for the new state.

Only the port from server_addr is used for listening (e.g., :50051).
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:50051).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return server.Run(ctx, &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				StateFile:     stateFile,
				NoHooks:       noHooks,
			})
		},
	}
)

// Execute runs the detector-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().
		StringVarP(&stateFile, "state-file", "s", config.DefaultStateFilename, "path to persist detector state")
	rootCmd.Flags().BoolVar(&noHooks, "no-hooks", false, "do not run state hooks on this host")
}
