package repository

import (
	"errors"

	"github.com/bitful-pannul/kinogate/internal/features/gate/models"
)

var (
	// ErrSessionNotFound is returned for operations on an unknown chat id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStaleSession is returned when a transition is attempted from a
	// state outside the expected set, e.g. a proof resubmitted after the
	// session already went terminal.
	ErrStaleSession = errors.New("stale session state")
)

// SessionRepository owns all ChatSession records. State is ephemeral by
// design: losing it on restart only forces the visitor to start over, and a
// lost session can never leak an invite since issuance is gated on Verified.
type SessionRepository interface {
	// Get returns a snapshot of the session for chatID.
	Get(chatID int64) (*models.Session, error)

	// Ensure returns the session for chatID, creating it in StateStarted
	// when absent.
	Ensure(chatID int64) (*models.Session, error)

	// Transition atomically moves the session to the target state if and
	// only if its current state is in from. The mutation, when non-nil, is
	// applied under the same atomicity (e.g. storing the issued invite).
	// This compare-and-set is the sole defense against duplicate
	// submissions racing on the same chat.
	Transition(chatID int64, from []models.State, to models.State, mutate func(*models.Session)) (*models.Session, error)
}
