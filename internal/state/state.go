package state

import "time"

// State names a conversational step the bot is waiting on for one user.
type State string

const (
	// StateIdle indicates that the bot is waiting for the next user command.
	StateIdle State = "idle"
	// StateAwaitingLimit indicates that a muscle flow is waiting for the
	// result-limit number.
	StateAwaitingLimit State = "awaiting_limit"
	// StateAwaitingQuery indicates that the substring flow is waiting for the
	// free-text search query.
	StateAwaitingQuery State = "awaiting_query"
)

// Flow distinguishes the two muscle search flows sharing the limit step.
type Flow string

const (
	FlowPrimary   Flow = "primary"
	FlowSecondary Flow = "secondary"
)

// Pending is the one continuation a user may have open: the awaited step plus
// the typed parameters captured when it was registered. Registering a new one
// replaces any unconsumed prior one.
type Pending struct {
	UserID    int64     `json:"user_id"`
	Current   State     `json:"current_state"`
	Flow      Flow      `json:"flow,omitempty"`
	Muscle    string    `json:"muscle,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
