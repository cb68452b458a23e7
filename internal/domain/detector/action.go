package detector

import (
	"errors"
	"fmt"
)

// Action is an event fed into the detection cycle to request a transition.
type Action int

const (
	// ActionNone requests nothing.
	ActionNone Action = 0
	// ActionTrigger reports that a person was detected.
	ActionTrigger Action = 1
	// ActionEndTime reports that the current timed state has elapsed.
	ActionEndTime Action = 2
	// ActionReset returns the cycle to Ready from any state.
	ActionReset Action = 3
)

// unknownLabel is returned by String for values outside the closed sets.
const unknownLabel = "Unknown"

// ErrUnknownAction is returned when text does not name an action.
var ErrUnknownAction = errors.New("unknown action")

// Actions returns every action in ordinal order.
func Actions() []Action {
	return []Action{ActionNone, ActionTrigger, ActionEndTime, ActionReset}
}

// String returns the display label of the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionTrigger:
		return "Trigger"
	case ActionEndTime:
		return "End Time"
	case ActionReset:
		return "Reset"
	default:
		return unknownLabel
	}
}

// IsValid reports whether the action belongs to the closed set.
func (a Action) IsValid() bool {
	return a >= ActionNone && a <= ActionReset
}

// ParseAction returns the action whose label matches s.
// Matching ignores case, spaces, underscores and dashes.
func ParseAction(s string) (Action, error) {
	key := normalizeLabel(s)

	for _, a := range Actions() {
		if normalizeLabel(a.String()) == key {
			return a, nil
		}
	}

	return ActionNone, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	if !a.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAction, int(a))
	}

	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}
