package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/people-detector/internal/domain/detector"
	"github.com/oshokin/people-detector/internal/logger"
	repo "github.com/oshokin/people-detector/internal/repository/state"
)

// Publisher delivers changed snapshots to subscribers.
type Publisher interface {
	Publish(ctx context.Context, snapshot *detector.Snapshot) error
}

// Actuator reacts to the detector entering a state.
type Actuator interface {
	Enter(ctx context.Context, state detector.State) error
}

// dependencies groups the collaborators of the service. Nil members are skipped.
type dependencies struct {
	// repo persists snapshots.
	repo repo.Repository
	// publisher announces changed snapshots.
	publisher Publisher
	// actuator runs state hooks.
	actuator Actuator
	// timings holds the automatic End Time delay per timed state.
	timings map[detector.State]time.Duration
}

// service runs the detection cycle and orchestrates persistence, timers and side effects.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	dependencies

	// ctx is the service lifetime context used by timer callbacks.
	ctx context.Context //nolint:containedctx // Timer callbacks have no caller context.
	// snapshot is the current in-memory detector snapshot.
	snapshot *detector.Snapshot
	// timer fires the pending End Time, nil when none is pending.
	timer *time.Timer
	// generation invalidates timers scheduled before the last transition.
	generation uint64
	// cycle counts detection cycles started since the service came up.
	cycle uint64
	// mu protects snapshot, timer, generation and cycle.
	mu sync.Mutex
	// announceMu orders publishes and hooks. It is acquired while mu is held,
	// so side effects leave in the order transitions were applied.
	announceMu sync.Mutex
}

// newService creates a service, restoring the persisted snapshot when there is one.
func newService(ctx context.Context, deps dependencies) (*service, error) {
	s := &service{
		dependencies: deps,
		ctx:          ctx,
		snapshot: &detector.Snapshot{
			Timestamp:  time.Now(),
			State:      detector.StateReady,
			LastAction: detector.ActionNone,
		},
	}

	if deps.repo != nil {
		snapshot, err := deps.repo.Load(ctx)

		switch {
		case err == nil:
			if snapshot != nil {
				s.snapshot = snapshot
			}
		case errors.Is(err, repo.ErrNotFound):
			// Keep default snapshot.
		default:
			return nil, fmt.Errorf("load state: %w", err)
		}
	}

	// A cycle interrupted by a restart is resumed as the first one.
	if s.snapshot.State != detector.StateReady {
		s.cycle = 1
	}

	s.mu.Lock()
	s.scheduleLocked()
	s.mu.Unlock()

	logger.InfoKV(ctx, "Detector restored", "state", s.snapshot.State.String(), "last_action", s.snapshot.LastAction.String())

	return s, nil
}

// ApplyAction feeds action into the cycle. Ignored actions return the current snapshot unchanged.
// When the new snapshot cannot be persisted the cycle is left as it was and the error is returned.
func (s *service) ApplyAction(
	ctx context.Context,
	source *detector.Source,
	action detector.Action,
) (*detector.Snapshot, error) {
	s.mu.Lock()

	ctx, snapshot, changed, err := s.applyLocked(ctx, source, action)
	if err != nil || !changed {
		s.mu.Unlock()

		return snapshot, err
	}

	s.announceLocked(ctx, snapshot)

	return snapshot, nil
}

// GetState returns the current snapshot.
func (s *service) GetState(ctx context.Context) *detector.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.DebugKV(ctx, "Detector state requested", "state", s.snapshot.State.String())

	return s.snapshot.Clone()
}

// Close stops the pending timer.
func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.stopTimerLocked()
}

// applyLocked persists the next snapshot and only then makes it current and reschedules the timer.
// The returned context carries the cycle number; the returned snapshot is a clone safe to hand out.
func (s *service) applyLocked(
	ctx context.Context,
	source *detector.Source,
	action detector.Action,
) (context.Context, *detector.Snapshot, bool, error) {
	if !action.IsValid() {
		return ctx, nil, false, fmt.Errorf("%w: %d", detector.ErrUnknownAction, int(action))
	}

	current := s.snapshot.State

	next, changed := detector.Transition(current, action)
	if !changed {
		logger.DebugKV(ctx, "Action ignored", "state", current.String(), "action", action.String(), "source", source.String())

		return ctx, s.snapshot.Clone(), false, nil
	}

	cycle := s.cycle
	if current == detector.StateReady {
		cycle++
	}

	ctx = logger.WithKV(ctx, "cycle", cycle)

	snapshot := &detector.Snapshot{
		Timestamp:  time.Now(),
		Source:     source.Clone(),
		State:      next,
		LastAction: action,
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, snapshot); err != nil {
			logger.ErrorKV(ctx, "Failed to persist detector state", "state", next.String(), "error", err)

			return ctx, nil, false, fmt.Errorf("persist state: %w", err)
		}
	}

	s.generation++
	s.stopTimerLocked()

	s.snapshot = snapshot
	s.cycle = cycle

	s.scheduleLocked()

	logger.InfoKV(
		ctx,
		"Detector transition",
		"from", current.String(),
		"to", next.String(),
		"action", action.String(),
		"source", source.String(),
	)

	return ctx, snapshot.Clone(), true, nil
}

// announceLocked takes the announcement slot, releases mu and then publishes
// the snapshot and runs the hook of its state. A transition applied later
// waits for this announcement before making its own.
// Failures are logged; the transition has already happened.
func (s *service) announceLocked(ctx context.Context, snapshot *detector.Snapshot) {
	s.announceMu.Lock()
	s.mu.Unlock()

	defer s.announceMu.Unlock()

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, snapshot); err != nil {
			logger.WarnKV(ctx, "Failed to publish detector state", "state", snapshot.State.String(), "error", err)
		}
	}

	if s.actuator != nil {
		if err := s.actuator.Enter(ctx, snapshot.State); err != nil {
			logger.ErrorKV(ctx, "Failed to run state hook", "state", snapshot.State.String(), "error", err)
		}
	}
}

// scheduleLocked arms the End Time timer when the current state is timed and has a positive delay.
func (s *service) scheduleLocked() {
	state := s.snapshot.State
	if !state.IsTimed() {
		return
	}

	delay := s.timings[state]
	if delay <= 0 {
		return
	}

	generation := s.generation
	s.timer = time.AfterFunc(delay, func() {
		s.expire(generation)
	})
}

// stopTimerLocked cancels the pending timer, if any.
func (s *service) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// expire feeds End Time for the timer scheduled at generation.
// Timers that lost a race against a newer transition do nothing.
// A timed transition that cannot be persisted is retried after the same delay.
func (s *service) expire(generation uint64) {
	s.mu.Lock()

	if generation != s.generation {
		s.mu.Unlock()

		return
	}

	s.timer = nil

	ctx, snapshot, changed, err := s.applyLocked(s.ctx, nil, detector.ActionEndTime)
	if err != nil {
		s.scheduleLocked()
		s.mu.Unlock()

		logger.ErrorKV(ctx, "Timed transition failed, will retry", "error", err)

		return
	}

	if !changed {
		s.mu.Unlock()

		return
	}

	s.announceLocked(ctx, snapshot)
}
