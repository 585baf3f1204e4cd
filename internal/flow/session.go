// Package flow holds the session record, the in-memory session store, and
// the state machine that drives a session through the operator-mediated flow.
// It has no transport dependencies; the router translates its effects into
// adapter calls.
package flow

import "time"

// State is a session's position in the flow.
type State string

const (
	// StateWaitingFood is the initial state: the front party has connected
	// but not yet submitted anything.
	StateWaitingFood State = "waiting_food"
	// StateWaitingAdminChoice means the food value has been relayed and the
	// operator must pick A, B, C, or send the user back.
	StateWaitingAdminChoice State = "waiting_admin_choice"
	// StateWaitingAdminInput means the operator picked a choice and the next
	// free-text operator message belongs to this session.
	StateWaitingAdminInput State = "waiting_admin_input"
	// StateWaitingAdminDecision means the instruction was delivered and the
	// operator must proceed or send the user back.
	StateWaitingAdminDecision State = "waiting_admin_decision"
	// StateOTPSubmitted means the front party submitted a code and the
	// operator must proceed or send the user back.
	StateOTPSubmitted State = "otp_submitted"
	// StateCompletedRedirect is terminal: the user was redirected. Every
	// further event on the session is ignored.
	StateCompletedRedirect State = "completed_redirect"
)

// Terminal reports whether s is a terminal state.
func (s State) Terminal() bool {
	return s == StateCompletedRedirect
}

// Session is the unit of correlated state between one front-party connection
// and the operator's decisions about it. Fields are mutated only by
// Machine.Apply; the store hands out pointers and serializes access.
type Session struct {
	ID           string // opaque, stable, unique across live sessions
	Status       State
	FavoriteFood string // submitted by the front party
	AdminChoice  string // "A", "B", or "C", chosen by the operator
	AdminValue   string // free-text instruction from the operator
	OTPCode      string // submitted by the front party at the code stage

	// AwaitingAdminReply marks the session that absorbs the next free-text
	// operator message. At most one session has it set at any instant.
	AwaitingAdminReply bool

	CreatedAt    time.Time
	LastActivity time.Time
}

// NewSession returns a Session in the initial state.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Status:       StateWaitingFood,
		CreatedAt:    now,
		LastActivity: now,
	}
}
