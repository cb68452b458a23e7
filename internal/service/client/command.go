package client

import (
	"context"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/people-detector/internal/config"
	"github.com/oshokin/people-detector/internal/domain/detector"
	"github.com/oshokin/people-detector/internal/logger"
	"github.com/oshokin/people-detector/internal/service/common"
)

// Options configures a single action push.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// Action is sent to the detector.
	Action detector.Action
}

// defaultPushInterval defines retry delay when pushing an action to the server.
const defaultPushInterval = 1 * time.Second

// Run sends the action with retry logic until the server answers or ctx is cancelled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "detector-action")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	source, err := common.DetectSource()
	if err != nil {
		return err
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Pushing action", "server_address", serverAddress, "action", opts.Action.String())

	return push(ctx, client, source, opts.Action, defaultPushInterval)
}

// actionApplier is the part of common.Client push depends on.
type actionApplier interface {
	ApplyAction(ctx context.Context, source *detector.Source, action detector.Action) (*detector.Snapshot, error)
}

// push sends action immediately and then once per interval while the server is
// unreachable or slow to answer. Any other failure is returned at once, since the
// server may already have applied the action and sending it again would move the cycle twice.
func push(
	ctx context.Context,
	client actionApplier,
	source *detector.Source,
	action detector.Action,
	interval time.Duration,
) error {
	attempt := func() (bool, error) {
		snapshot, err := client.ApplyAction(ctx, source, action)
		if err != nil {
			if !retryable(err) {
				return false, err
			}

			logger.WarnKV(ctx, "ApplyAction failed, retrying", "error", err, "interval", interval.String())

			return false, nil
		}

		logger.Infof(ctx, "Detector state: %s", common.FormatSnapshot(snapshot))

		return true, nil
	}

	done, err := attempt()
	if done || err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if done, err = attempt(); done || err != nil {
				return err
			}
		}
	}
}

// retryable reports whether err means the action may not have reached the server.
func retryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}

// vocabularyHeader is the header row of the vocabulary table.
//
//nolint:gochecknoglobals // Read-only table header.
var vocabularyHeader = table.Row{"KIND", "ORDINAL", "LABEL"}

// FormatVocabulary renders actions, states and the NotUsed sentinel as a table.
func FormatVocabulary() string {
	t := table.NewWriter()
	t.AppendHeader(vocabularyHeader)

	for _, a := range detector.Actions() {
		t.AppendRow(table.Row{"action", int(a), a.String()})
	}

	t.AppendSeparator()

	for _, s := range detector.States() {
		t.AppendRow(table.Row{"state", int(s), s.String()})
	}

	t.AppendSeparator()
	t.AppendRow(table.Row{"sentinel", detector.NotUsed, "Not Used"})

	return t.Render()
}
