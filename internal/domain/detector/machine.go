package detector

// Transition returns the state reached by applying action in state.
// changed is false when the action is ignored in that state.
//
// Reset always returns to Ready. Trigger only starts a cycle from Ready.
// End Time moves Delay to Fire, Fire to Rearm and Rearm back to Ready.
func Transition(state State, action Action) (next State, changed bool) {
	next = state

	switch action {
	case ActionReset:
		next = StateReady
	case ActionTrigger:
		if state == StateReady {
			next = StateDelay
		}
	case ActionEndTime:
		switch state {
		case StateDelay:
			next = StateFire
		case StateFire:
			next = StateRearm
		case StateRearm:
			next = StateReady
		case StateReady:
		}
	case ActionNone:
	}

	return next, next != state
}
