package detector

import (
	"errors"
	"fmt"
	"strings"
)

// State is the lifecycle stage of a detection cycle.
type State int

const (
	// StateReady waits for a trigger.
	StateReady State = 0
	// StateDelay holds off after a trigger before firing.
	StateDelay State = 1
	// StateFire is the active output stage.
	StateFire State = 2
	// StateRearm ignores triggers until the detector is ready again.
	StateRearm State = 3
)

// ErrUnknownState is returned when text does not name a state.
var ErrUnknownState = errors.New("unknown state")

// States returns every state in ordinal order.
func States() []State {
	return []State{StateReady, StateDelay, StateFire, StateRearm}
}

// String returns the display label of the state.
func (s State) String() string {
	switch s {
	case StateReady:
		return "Ready"
	case StateDelay:
		return "Delay"
	case StateFire:
		return "Fire"
	case StateRearm:
		return "ReArm"
	default:
		return unknownLabel
	}
}

// IsValid reports whether the state belongs to the closed set.
func (s State) IsValid() bool {
	return s >= StateReady && s <= StateRearm
}

// IsTimed reports whether the state is left by an End Time action.
func (s State) IsTimed() bool {
	switch s {
	case StateDelay, StateFire, StateRearm:
		return true
	default:
		return false
	}
}

// ParseState returns the state whose label matches s.
// Matching ignores case, spaces, underscores and dashes.
func ParseState(s string) (State, error) {
	key := normalizeLabel(s)

	for _, st := range States() {
		if normalizeLabel(st.String()) == key {
			return st, nil
		}
	}

	return StateReady, fmt.Errorf("%w: %q", ErrUnknownState, s)
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownState, int(s))
	}

	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}

// normalizeLabel folds a label into its comparison key.
func normalizeLabel(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '\t':
			return -1
		default:
			return r
		}
	}, strings.ToLower(strings.TrimSpace(s)))
}
