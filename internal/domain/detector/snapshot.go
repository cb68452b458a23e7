package detector

import "time"

// Source identifies who issued an action.
type Source struct {
	// Hostname is the machine the action came from.
	Hostname string
	// Username is the system user that sent the action.
	Username string
}

// Clone returns a copy of the source.
func (s *Source) Clone() *Source {
	if s == nil {
		return nil
	}

	cloned := *s

	return &cloned
}

// String formats the source as user@host.
func (s *Source) String() string {
	if s == nil {
		return "timer"
	}

	return s.Username + "@" + s.Hostname
}

// Snapshot is the detection cycle at a specific point in time.
type Snapshot struct {
	// Timestamp is when State was entered.
	Timestamp time.Time
	// Source issued LastAction, nil when a timer did.
	Source *Source
	// State is the current stage of the cycle.
	State State
	// LastAction is the action that led to State.
	LastAction Action
}

// Clone returns a copy of the snapshot to avoid leaking internal references.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	return &Snapshot{
		Timestamp:  s.Timestamp,
		Source:     s.Source.Clone(),
		State:      s.State,
		LastAction: s.LastAction,
	}
}
