package event

import (
	"time"

	"ludarena/domain"
)

// Event is anything the hub can push to session subscribers.
// Payload shapes are static types, never loose maps.
type Event interface {
	SessionID() string
	Kind() string
}

// MatchFound is delivered to both matched accounts when the queue pairs them.
type MatchFound struct {
	Session    string
	Role       domain.Role
	OpponentID string
	Class      domain.Class
}

func (e MatchFound) SessionID() string { return e.Session }
func (e MatchFound) Kind() string      { return "match_found" }

// MoveAccepted fans out every committed transition in log order.
type MoveAccepted struct {
	Session  string
	Move     string
	NewState []byte
	Turn     domain.Role
	Terminal bool
	Outcome  domain.Outcome

	WhiteRemaining time.Duration
	BlackRemaining time.Duration
}

func (e MoveAccepted) SessionID() string { return e.Session }
func (e MoveAccepted) Kind() string      { return "move_accepted" }

// ParticipantLeft signals a disconnect or an explicit detach.
type ParticipantLeft struct {
	Session   string
	AccountID string
	Reason    domain.TerminateReason
}

func (e ParticipantLeft) SessionID() string { return e.Session }
func (e ParticipantLeft) Kind() string      { return "participant_left" }

// SettlementApplied closes a session: ratings are durable from this point.
type SettlementApplied struct {
	Session    string
	Outcome    domain.Outcome
	WhiteDelta int
	BlackDelta int
}

func (e SettlementApplied) SessionID() string { return e.Session }
func (e SettlementApplied) Kind() string      { return "settlement_applied" }
