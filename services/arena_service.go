package services

import (
	"context"
	"errors"

	"ludarena/contract"
	"ludarena/domain"
	apperrors "ludarena/errors"
	"ludarena/repositories"
	"ludarena/runtime"
	"ludarena/session"
)

// SessionView is what the REST surface returns for one session, live or
// settled.
type SessionView struct {
	Session domain.GameSession
	Record  *domain.CompletedRecord // set once the session has settled
}

type IArenaService interface {
	JoinQueue(ctx context.Context, accountID string, class domain.Class) (runtime.JoinResult, error)
	LeaveQueue(accountID string)
	Attach(sessionID, accountID, connID string, sink contract.EventSink) (domain.GameSession, domain.Role, error)
	Detach(sessionID, connID string)
	ProposeMove(ctx context.Context, sessionID, accountID, move string) (session.CommitResult, error)
	Resign(ctx context.Context, sessionID, accountID string) error
	Disconnect(ctx context.Context, sessionID, accountID string)
	Terminate(ctx context.Context, sessionID string) error
	GetSession(sessionID string) (SessionView, error)
}

// ArenaService fronts the coordinator for the transport layer and adds
// the read paths that mix live and settled sessions.
type ArenaService struct {
	coordinator *runtime.Coordinator
	manager     *session.Manager
	records     repositories.IRecordRepository
}

func NewArenaService(coordinator *runtime.Coordinator, manager *session.Manager, records repositories.IRecordRepository) *ArenaService {
	return &ArenaService{coordinator: coordinator, manager: manager, records: records}
}

func (s *ArenaService) JoinQueue(ctx context.Context, accountID string, class domain.Class) (runtime.JoinResult, error) {
	return s.coordinator.JoinQueue(ctx, accountID, class)
}

func (s *ArenaService) LeaveQueue(accountID string) {
	s.coordinator.LeaveQueue(accountID)
}

func (s *ArenaService) Attach(sessionID, accountID, connID string, sink contract.EventSink) (domain.GameSession, domain.Role, error) {
	return s.coordinator.Attach(sessionID, accountID, connID, sink)
}

func (s *ArenaService) Detach(sessionID, connID string) {
	s.coordinator.Detach(sessionID, connID)
}

func (s *ArenaService) ProposeMove(ctx context.Context, sessionID, accountID, move string) (session.CommitResult, error) {
	return s.coordinator.ProposeMove(ctx, sessionID, accountID, move)
}

func (s *ArenaService) Resign(ctx context.Context, sessionID, accountID string) error {
	return s.coordinator.Resign(ctx, sessionID, accountID)
}

func (s *ArenaService) Disconnect(ctx context.Context, sessionID, accountID string) {
	s.coordinator.Disconnect(ctx, sessionID, accountID)
}

// Terminate is the administrative kill switch.
func (s *ArenaService) Terminate(ctx context.Context, sessionID string) error {
	return s.coordinator.Terminate(ctx, sessionID)
}

// GetSession resolves a session id against the live set first, then the
// settled records.
func (s *ArenaService) GetSession(sessionID string) (SessionView, error) {
	live, err := s.manager.Snapshot(sessionID)
	if err == nil {
		return SessionView{Session: live}, nil
	}
	if !errors.Is(err, apperrors.ErrSessionNotFound) {
		return SessionView{}, err
	}

	record, err := s.records.GetBySession(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return SessionView{
		Session: domain.GameSession{
			ID:      record.SessionID,
			Class:   record.Class,
			White:   domain.Participant{AccountID: record.WhiteID, Rating: record.WhiteRatingBefore},
			Black:   domain.Participant{AccountID: record.BlackID, Rating: record.BlackRatingBefore},
			Status:  domain.StatusCompleted,
			Moves:   record.Moves,
			Outcome: record.Outcome,
			Reason:  record.Reason,
		},
		Record: &record,
	}, nil
}
