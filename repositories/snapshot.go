//go:generate go run go.uber.org/mock/mockgen -source=snapshot.go -destination=../mocks/mock_snapshot_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"ludarena/domain"
)

// ISessionSnapshotRepository mirrors live sessions to disk so a restart
// can pick them up. The mirror lags the in-memory truth on purpose:
// losing a write costs recovery fidelity, never a committed move.
type ISessionSnapshotRepository interface {
	Put(s domain.GameSession) error
	Delete(sessionID string) error
	All() ([]domain.GameSession, error)
}

type SessionSnapshotRepository struct {
	db *badger.DB
}

func NewSessionSnapshotRepository(db *badger.DB) SessionSnapshotRepository {
	return SessionSnapshotRepository{db: db}
}

type diskSession struct {
	ID             string   `json:"id"`
	Class          string   `json:"class"`
	WhiteID        string   `json:"white_id"`
	WhiteRating    int      `json:"white_rating"`
	BlackID        string   `json:"black_id"`
	BlackRating    int      `json:"black_rating"`
	Status         string   `json:"status"`
	State          []byte   `json:"state"`
	Moves          []string `json:"moves"`
	Outcome        string   `json:"outcome,omitempty"`
	Reason         string   `json:"reason,omitempty"`
	ClockInitial   int64    `json:"clock_initial"`
	ClockIncrement int64    `json:"clock_increment"`
	WhiteRemaining int64    `json:"white_remaining"`
	BlackRemaining int64    `json:"black_remaining"`
	CreatedAt      int64    `json:"created_at"`
	LastMoveAt     int64    `json:"last_move_at"`
}

func sessionKey(sessionID string) []byte { return []byte("active:" + sessionID) }

func (s SessionSnapshotRepository) Put(session domain.GameSession) error {
	data, err := json.Marshal(fromSession(session))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(session.ID), data)
	})
}

func (s SessionSnapshotRepository) Delete(sessionID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(sessionID))
	})
}

func (s SessionSnapshotRepository) All() ([]domain.GameSession, error) {
	var sessions []domain.GameSession
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("active:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var ds diskSession
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &ds)
			})
			if err != nil {
				return err
			}
			sessions = append(sessions, toSession(ds))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func fromSession(g domain.GameSession) diskSession {
	return diskSession{
		ID:             g.ID,
		Class:          string(g.Class),
		WhiteID:        g.White.AccountID,
		WhiteRating:    g.White.Rating,
		BlackID:        g.Black.AccountID,
		BlackRating:    g.Black.Rating,
		Status:         string(g.Status),
		State:          g.State,
		Moves:          g.Moves,
		Outcome:        string(g.Outcome),
		Reason:         string(g.Reason),
		ClockInitial:   int64(g.Clock.Initial),
		ClockIncrement: int64(g.Clock.Increment),
		WhiteRemaining: int64(g.WhiteRemaining),
		BlackRemaining: int64(g.BlackRemaining),
		CreatedAt:      g.CreatedAt.UnixNano(),
		LastMoveAt:     g.LastMoveAt.UnixNano(),
	}
}

func toSession(ds diskSession) domain.GameSession {
	return domain.GameSession{
		ID:     ds.ID,
		Class:  domain.Class(ds.Class),
		White:  domain.Participant{AccountID: ds.WhiteID, Rating: ds.WhiteRating},
		Black:  domain.Participant{AccountID: ds.BlackID, Rating: ds.BlackRating},
		Status: domain.Status(ds.Status),
		State:  ds.State,
		Moves:  ds.Moves,
		Outcome: domain.Outcome(ds.Outcome),
		Reason:  domain.TerminateReason(ds.Reason),
		Clock: domain.ClockBudget{
			Initial:   time.Duration(ds.ClockInitial),
			Increment: time.Duration(ds.ClockIncrement),
		},
		WhiteRemaining: time.Duration(ds.WhiteRemaining),
		BlackRemaining: time.Duration(ds.BlackRemaining),
		CreatedAt:      time.Unix(0, ds.CreatedAt).UTC(),
		LastMoveAt:     time.Unix(0, ds.LastMoveAt).UTC(),
	}
}
