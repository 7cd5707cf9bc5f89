package models

import "time"

// State is the lifecycle stage of a gating attempt for one chat.
type State string

const (
	// StateStarted is set when a visitor first engages the bot.
	StateStarted State = "started"
	// StateAwaitingProof is set once the sign-page link has been handed out.
	StateAwaitingProof State = "awaiting_proof"
	// StateVerified is terminal: ownership proven, invite issued.
	StateVerified State = "verified"
	// StateDenied is terminal: the attempt failed and stays failed for the
	// lifetime of the session.
	StateDenied State = "denied"
)

// Terminal reports whether no further transition is allowed from s.
func (s State) Terminal() bool {
	return s == StateVerified || s == StateDenied
}

// Session tracks gating progress for a single chat. Records are owned
// exclusively by the session repository and are never persisted: a process
// restart drops all in-flight sessions and a visitor simply starts over.
type Session struct {
	ChatID    int64     `json:"chat_id"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// InviteLink is the single-use invite stored once, when the session
	// reaches StateVerified. Replayed submissions get this same link back.
	InviteLink string `json:"invite_link,omitempty"`
}
