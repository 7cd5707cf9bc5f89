package models

// OutcomeKind classifies the result of a proof submission.
type OutcomeKind string

const (
	// OutcomeVerified: ownership proven, a fresh invite was issued.
	OutcomeVerified OutcomeKind = "verified"
	// OutcomeAlreadyVerified: idempotent replay, the stored invite is returned.
	OutcomeAlreadyVerified OutcomeKind = "already_verified"
	// OutcomeDenied: terminal refusal for this session.
	OutcomeDenied OutcomeKind = "denied"
	// OutcomeError: the gate could not decide; the session stays
	// non-terminal and the visitor may resubmit.
	OutcomeError OutcomeKind = "error"
)

// Denial and error reasons carried on an Outcome.
const (
	ReasonInvalidSignature    = "invalid signature"
	ReasonInsufficientBalance = "insufficient balance"
	ReasonAlreadyDenied       = "already denied"
	ReasonOracleUnavailable   = "oracle unavailable"
	ReasonIssuanceFailed      = "issuance failed"
)

// Outcome is the gate's decision for one proof submission.
type Outcome struct {
	Kind       OutcomeKind `json:"kind"`
	InviteLink string      `json:"invite_link,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	Err        error       `json:"-"`
}
