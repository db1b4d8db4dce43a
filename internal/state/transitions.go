package state

// validTransitions contains the permitted continuation transitions. The
// awaiting_limit self-edge is the invalid-input retry loop: a non-numeric
// reply re-registers the same continuation instead of aborting the flow.
var validTransitions = map[State][]State{
	StateIdle: {
		StateAwaitingLimit,
		StateAwaitingQuery,
	},
	StateAwaitingLimit: {
		StateAwaitingLimit,
		StateIdle,
	},
	StateAwaitingQuery: {
		StateIdle,
	},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
// Returning to idle is always permitted: a user may abandon any open flow.
func IsTransitionAllowed(from, to State) bool {
	if to == StateIdle {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, next := range allowed {
		if next == to {
			return true
		}
	}

	return false
}
