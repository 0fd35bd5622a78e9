package domain

import "time"

// Role identifies a seat inside a session. White always moves first.
type Role string

const (
	RoleWhite     Role = "white"
	RoleBlack     Role = "black"
	RoleSpectator Role = "spectator"
)

// Opponent returns the other seat. Spectators have no opponent.
func (r Role) Opponent() Role {
	switch r {
	case RoleWhite:
		return RoleBlack
	case RoleBlack:
		return RoleWhite
	default:
		return RoleSpectator
	}
}

type Status string

const (
	StatusWaiting   Status = "WAITING"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusAborted   Status = "ABORTED"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAborted
}

type Outcome string

const (
	OutcomeWhiteWins Outcome = "white-wins"
	OutcomeBlackWins Outcome = "black-wins"
	OutcomeDraw      Outcome = "draw"
	OutcomeNone      Outcome = "" // session aborted before it counted
)

// Winner maps an outcome to the winning seat, RoleSpectator for draws.
func (o Outcome) Winner() Role {
	switch o {
	case OutcomeWhiteWins:
		return RoleWhite
	case OutcomeBlackWins:
		return RoleBlack
	default:
		return RoleSpectator
	}
}

// WonBy builds the outcome in which the given seat wins.
func WonBy(r Role) Outcome {
	if r == RoleWhite {
		return OutcomeWhiteWins
	}
	return OutcomeBlackWins
}

// TerminateReason explains a forced terminal transition.
type TerminateReason string

const (
	ReasonResignation TerminateReason = "resignation"
	ReasonDisconnect  TerminateReason = "disconnect"
	ReasonTimeout     TerminateReason = "timeout"
	ReasonAdmin       TerminateReason = "administrative"
)

// ClockBudget is the time allowance of one seat for a whole session.
type ClockBudget struct {
	Initial   time.Duration
	Increment time.Duration
}

type Participant struct {
	AccountID string
	Rating    int // snapshot taken at session creation, used at settlement
}

// GameSession is the authoritative state of one live session.
// It is owned exclusively by the session manager while active;
// every mutation goes through the commit protocol.
type GameSession struct {
	ID     string
	Class  Class
	White  Participant
	Black  Participant
	Status Status

	// State is the opaque blob produced by the rules oracle.
	State []byte
	// Moves is the append-only log of accepted transitions, in commit order.
	Moves []string

	Outcome Outcome
	Reason  TerminateReason

	Clock          ClockBudget
	WhiteRemaining time.Duration
	BlackRemaining time.Duration

	CreatedAt  time.Time
	LastMoveAt time.Time
}

// Turn derives the seat to move from the accepted log: white opens,
// seats alternate on every accepted transition.
func (g *GameSession) Turn() Role {
	if len(g.Moves)%2 == 0 {
		return RoleWhite
	}
	return RoleBlack
}

// RoleOf resolves an account to its seat, RoleSpectator when it holds none.
func (g *GameSession) RoleOf(accountID string) Role {
	switch accountID {
	case g.White.AccountID:
		return RoleWhite
	case g.Black.AccountID:
		return RoleBlack
	default:
		return RoleSpectator
	}
}

// Remaining returns the clock budget left for a seat.
func (g *GameSession) Remaining(r Role) time.Duration {
	if r == RoleWhite {
		return g.WhiteRemaining
	}
	return g.BlackRemaining
}
