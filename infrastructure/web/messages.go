// Package web is the HTTP and websocket surface of the arena: the REST
// API for accounts and matchmaking, and the realtime channel for play.
package web

import (
	"time"

	"ludarena/domain"
	"ludarena/domain/event"
	"ludarena/services"
)

// inboundMessage is what a websocket client may send.
type inboundMessage struct {
	Type      string `json:"type"` // attach | move | resign | detach
	SessionID string `json:"session_id"`
	Move      string `json:"move,omitempty"`
}

// outboundMessage is the envelope of everything pushed to a client.
type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

type attachedPayload struct {
	SessionID      string   `json:"session_id"`
	Role           string   `json:"role"`
	Status         string   `json:"status"`
	State          []byte   `json:"state"`
	Moves          []string `json:"moves"`
	Turn           string   `json:"turn"`
	WhiteID        string   `json:"white_id"`
	BlackID        string   `json:"black_id"`
	WhiteRemaining int64    `json:"white_remaining_ms"`
	BlackRemaining int64    `json:"black_remaining_ms"`
}

func toAttachedPayload(s domain.GameSession, role domain.Role) attachedPayload {
	return attachedPayload{
		SessionID:      s.ID,
		Role:           string(role),
		Status:         string(s.Status),
		State:          s.State,
		Moves:          s.Moves,
		Turn:           string(s.Turn()),
		WhiteID:        s.White.AccountID,
		BlackID:        s.Black.AccountID,
		WhiteRemaining: s.WhiteRemaining.Milliseconds(),
		BlackRemaining: s.BlackRemaining.Milliseconds(),
	}
}

type matchFoundPayload struct {
	SessionID  string `json:"session_id"`
	Role       string `json:"role"`
	OpponentID string `json:"opponent_id"`
	Class      string `json:"class"`
}

type moveAcceptedPayload struct {
	SessionID      string `json:"session_id"`
	Move           string `json:"move"`
	State          []byte `json:"state"`
	Turn           string `json:"turn"`
	Terminal       bool   `json:"terminal"`
	Outcome        string `json:"outcome,omitempty"`
	WhiteRemaining int64  `json:"white_remaining_ms"`
	BlackRemaining int64  `json:"black_remaining_ms"`
}

type participantLeftPayload struct {
	SessionID string `json:"session_id"`
	AccountID string `json:"account_id,omitempty"`
	Reason    string `json:"reason"`
}

type settlementAppliedPayload struct {
	SessionID  string `json:"session_id"`
	Outcome    string `json:"outcome"`
	WhiteDelta int    `json:"white_delta"`
	BlackDelta int    `json:"black_delta"`
}

// toOutbound converts a domain event to its wire shape.
func toOutbound(e event.Event) outboundMessage {
	switch ev := e.(type) {
	case event.MatchFound:
		return outboundMessage{Type: ev.Kind(), Payload: matchFoundPayload{
			SessionID:  ev.Session,
			Role:       string(ev.Role),
			OpponentID: ev.OpponentID,
			Class:      string(ev.Class),
		}}
	case event.MoveAccepted:
		return outboundMessage{Type: ev.Kind(), Payload: moveAcceptedPayload{
			SessionID:      ev.Session,
			Move:           ev.Move,
			State:          ev.NewState,
			Turn:           string(ev.Turn),
			Terminal:       ev.Terminal,
			Outcome:        string(ev.Outcome),
			WhiteRemaining: ev.WhiteRemaining.Milliseconds(),
			BlackRemaining: ev.BlackRemaining.Milliseconds(),
		}}
	case event.ParticipantLeft:
		return outboundMessage{Type: ev.Kind(), Payload: participantLeftPayload{
			SessionID: ev.Session,
			AccountID: ev.AccountID,
			Reason:    string(ev.Reason),
		}}
	case event.SettlementApplied:
		return outboundMessage{Type: ev.Kind(), Payload: settlementAppliedPayload{
			SessionID:  ev.Session,
			Outcome:    string(ev.Outcome),
			WhiteDelta: ev.WhiteDelta,
			BlackDelta: ev.BlackDelta,
		}}
	default:
		return outboundMessage{Type: e.Kind()}
	}
}

// REST DTOs

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type joinQueueRequest struct {
	Class string `json:"class"`
}

type joinQueueResponse struct {
	Matched    bool   `json:"matched"`
	SessionID  string `json:"session_id,omitempty"`
	Role       string `json:"role,omitempty"`
	OpponentID string `json:"opponent_id,omitempty"`
}

type profileResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Rating      int    `json:"rating"`
	GamesPlayed int    `json:"games_played"`
	GamesWon    int    `json:"games_won"`
	GamesLost   int    `json:"games_lost"`
	GamesDrawn  int    `json:"games_drawn"`
}

func toProfileResponse(p services.Profile) profileResponse {
	return profileResponse{
		ID:          p.ID,
		Username:    p.Username,
		Rating:      p.Rating,
		GamesPlayed: p.GamesPlayed,
		GamesWon:    p.GamesWon,
		GamesLost:   p.GamesLost,
		GamesDrawn:  p.GamesDrawn,
	}
}

type recordResponse struct {
	SessionID string   `json:"session_id"`
	Class     string   `json:"class"`
	WhiteID   string   `json:"white_id"`
	BlackID   string   `json:"black_id"`
	Outcome   string   `json:"outcome"`
	Reason    string   `json:"reason"`
	Moves     []string `json:"moves"`
	Delta     int      `json:"delta"`
	PlayedAt  string   `json:"played_at"`
}

func toRecordResponse(r domain.CompletedRecord, viewerID string) recordResponse {
	return recordResponse{
		SessionID: r.SessionID,
		Class:     string(r.Class),
		WhiteID:   r.WhiteID,
		BlackID:   r.BlackID,
		Outcome:   string(r.Outcome),
		Reason:    string(r.Reason),
		Moves:     r.Moves,
		Delta:     r.DeltaFor(viewerID),
		PlayedAt:  r.PlayedAt.Format(time.RFC3339),
	}
}

type sessionResponse struct {
	SessionID string          `json:"session_id"`
	Class     string          `json:"class"`
	Status    string          `json:"status"`
	WhiteID   string          `json:"white_id"`
	BlackID   string          `json:"black_id"`
	Moves     []string        `json:"moves"`
	Turn      string          `json:"turn,omitempty"`
	Outcome   string          `json:"outcome,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Record    *recordResponse `json:"record,omitempty"`
}
