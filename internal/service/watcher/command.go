package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/people-detector/internal/config"
	"github.com/oshokin/people-detector/internal/domain/detector"
	"github.com/oshokin/people-detector/internal/logger"
	"github.com/oshokin/people-detector/internal/service/actuator"
	"github.com/oshokin/people-detector/internal/service/common"
)

// Options controls the watcher polling behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional gRPC server address override.
	ServerAddress string
	// PollInterval defines the interval between state checks.
	PollInterval time.Duration
	// Debug logs state changes without running hooks.
	Debug bool
}

// DefaultPollInterval is used when Options.PollInterval is not positive.
// States shorter than the interval are not observed directly. When a poll finds
// the cycle moved more than one step, the skipped states are reconstructed from
// the cycle order and their hooks run late, in order, before the current one.
// States passed before a Reset cannot be reconstructed.
const DefaultPollInterval = time.Second

// stateGetter is the part of common.Client the watcher depends on.
type stateGetter interface {
	GetState(ctx context.Context, source *detector.Source) (*detector.Snapshot, error)
}

// hookRunner runs the hook of a newly observed state.
type hookRunner interface {
	Enter(ctx context.Context, state detector.State) error
}

// Run polls the detector state until ctx is cancelled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "detector-watch")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	source, err := common.DetectSource()
	if err != nil {
		return fmt.Errorf("detect source: %w", err)
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	var hooks hookRunner
	if !opts.Debug {
		hooks = actuator.New(cfg.Detector.HookCommands())
	}

	logger.InfoKV(ctx, "Watching detector state", "server_address", serverAddress, "interval", interval.String())

	w := &watcher{
		client: client,
		source: source,
		hooks:  hooks,
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")

			return nil
		case <-ticker.C:
			if err = w.check(ctx); err != nil {
				logger.ErrorKV(ctx, "Check state failed", "error", err)
			}
		}
	}
}

// watcher remembers the last observed snapshot between polls.
type watcher struct {
	// client reads the detector state.
	client stateGetter
	// source identifies this watcher to the server.
	source *detector.Source
	// hooks runs state hooks, nil in debug mode.
	hooks hookRunner
	// last is the state seen on the previous poll.
	last detector.State
	// stamp is the snapshot timestamp seen on the previous poll.
	stamp time.Time
	// seen is false until the first successful poll.
	seen bool
}

// check polls once and runs hooks when the detector moved since the previous poll.
// The first poll only records the state, so restarting the watcher never repeats a hook.
func (w *watcher) check(ctx context.Context) error {
	snapshot, err := w.client.GetState(ctx, w.source)
	if err != nil {
		return err
	}

	if w.seen && !w.moved(snapshot) {
		return nil
	}

	first := !w.seen
	previous := w.last

	w.last = snapshot.State
	w.stamp = snapshot.Timestamp
	w.seen = true

	if first {
		logger.Infof(ctx, "Detector state: %s", common.FormatSnapshot(snapshot))

		return nil
	}

	missed := missedStates(previous, snapshot)
	if len(missed) > 0 {
		logger.WarnKV(ctx, "Detector states passed between polls", "states", labels(missed))
	}

	logger.InfoKV(
		ctx,
		"Detector state changed",
		"from", previous.String(),
		"to", snapshot.State.String(),
		"action", snapshot.LastAction.String(),
	)

	if w.hooks == nil {
		logger.Debug(ctx, "Debug mode, hook skipped")

		return nil
	}

	for _, state := range append(missed, snapshot.State) {
		if err = w.hooks.Enter(ctx, state); err != nil {
			return fmt.Errorf("enter %s: %w", state, err)
		}
	}

	return nil
}

// moved reports whether snapshot differs from the previous poll. A snapshot in the
// same state with a newer timestamp means a whole cycle went by unobserved.
func (w *watcher) moved(snapshot *detector.Snapshot) bool {
	if snapshot.State != w.last {
		return true
	}

	return snapshot.LastAction != detector.ActionNone && !snapshot.Timestamp.Equal(w.stamp)
}

// missedStates returns the states the cycle went through between previous and
// snapshot without being polled. Forward moves are replayed in cycle order;
// a Reset hides what came before it, so nothing is returned for it.
func missedStates(previous detector.State, snapshot *detector.Snapshot) []detector.State {
	if snapshot.LastAction != detector.ActionTrigger && snapshot.LastAction != detector.ActionEndTime {
		return nil
	}

	var missed []detector.State

	for state := advance(previous); state != snapshot.State; state = advance(state) {
		if len(missed) == len(detector.States()) {
			return nil
		}

		missed = append(missed, state)
	}

	return missed
}

// advance returns the state that follows state when the cycle is not reset.
func advance(state detector.State) detector.State {
	action := detector.ActionEndTime
	if state == detector.StateReady {
		action = detector.ActionTrigger
	}

	next, _ := detector.Transition(state, action)

	return next
}

// labels converts states to their labels for logging.
func labels(states []detector.State) []string {
	out := make([]string, 0, len(states))
	for _, state := range states {
		out = append(out, state.String())
	}

	return out
}
