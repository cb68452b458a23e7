// Package actuator runs external commands when the detector enters a state.
package actuator

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/oshokin/people-detector/internal/domain/detector"
	"github.com/oshokin/people-detector/internal/logger"
)

// ErrEmptyCommand indicates a hook without a program to run.
var ErrEmptyCommand = errors.New("empty hook command")

// Runner starts the configured command for each state.
type Runner struct {
	// commands maps a state to its argv.
	commands map[detector.State][]string
}

// New creates a runner for the provided hooks. States without hooks are no-ops.
func New(commands map[detector.State][]string) *Runner {
	cloned := make(map[detector.State][]string, len(commands))
	for state, argv := range commands {
		cloned[state] = append([]string(nil), argv...)
	}

	return &Runner{
		commands: cloned,
	}
}

// Has reports whether a hook is configured for state.
func (r *Runner) Has(state detector.State) bool {
	return r != nil && len(r.commands[state]) > 0
}

// Enter starts the hook for state.
// The command is started asynchronously and is not killed when ctx is cancelled;
// it is reaped in the background and its exit status is logged.
func (r *Runner) Enter(ctx context.Context, state detector.State) error {
	if !r.Has(state) {
		return nil
	}

	argv := r.commands[state]
	if argv[0] == "" {
		return fmt.Errorf("%s: %w", state, ErrEmptyCommand)
	}

	cmd := exec.CommandContext(context.WithoutCancel(ctx), argv[0], argv[1:]...) //nolint:gosec // Hooks come from the operator's config.

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s hook: %w", state, err)
	}

	logger.InfoKV(ctx, "Hook started", "state", state.String(), "command", strings.Join(argv, " "), "pid", cmd.Process.Pid)

	go func() {
		if err := cmd.Wait(); err != nil {
			logger.ErrorKV(ctx, "Hook failed", "state", state.String(), "error", err)

			return
		}

		logger.DebugKV(ctx, "Hook finished", "state", state.String())
	}()

	return nil
}
