package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/people-detector/internal/config"
	"github.com/oshokin/people-detector/internal/domain/detector"
	client "github.com/oshokin/people-detector/internal/service/client"
	"github.com/oshokin/people-detector/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string

	// rootCmd represents the base command for sending an action.
	rootCmd = &cobra.Command{
		Use:   "detector-action <action> [server-address]",
		Short: "Send an action to the people detector.",
		Long: `Sends one action to the detector server and prints the resulting state.

Actions: ` + actionLabels() + `. Labels are case-insensitive; spaces,
underscores and dashes are ignored, so "end-time" and "End Time" are the same.
The request is retried every second until the server answers.
Server address can be provided as argument or loaded from configuration file.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			action, err := detector.ParseAction(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var serverAddress string
			if len(args) > 1 {
				serverAddress = args[1]
			}

			return client.Run(ctx, &client.Options{
				ConfigPath:    cfgPath,
				ServerAddress: serverAddress,
				Action:        action,
			})
		},
	}

	// vocabularyCmd prints the detector vocabulary.
	vocabularyCmd = &cobra.Command{
		Use:   "vocabulary",
		Short: "Print detector actions and states.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), client.FormatVocabulary())
		},
	}
)

// actionLabels lists the action labels for help output.
func actionLabels() string {
	labels := make([]string, 0, len(detector.Actions()))
	for _, a := range detector.Actions() {
		labels = append(labels, fmt.Sprintf("%q", a.String()))
	}

	return strings.Join(labels, ", ")
}

// Execute runs the detector-action CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(vocabularyCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
