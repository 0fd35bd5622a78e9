//go:generate go run go.uber.org/mock/mockgen -source=record.go -destination=../mocks/mock_record_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"ludarena/domain"
	"ludarena/errors"
)

type IRecordRepository interface {
	ApplySettlement(record domain.CompletedRecord) error
	GetBySession(sessionID string) (domain.CompletedRecord, error)
	HistoryFor(accountID string, limit int) ([]domain.CompletedRecord, error)
}

type RecordRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewRecordRepository(db *badger.DB, log *slog.Logger) RecordRepository {
	return RecordRepository{db: db, log: log}
}

type diskRecord struct {
	SessionID         string   `json:"session_id"`
	Class             string   `json:"class"`
	WhiteID           string   `json:"white_id"`
	BlackID           string   `json:"black_id"`
	Outcome           string   `json:"outcome"`
	Reason            string   `json:"reason"`
	Moves             []string `json:"moves"`
	WhiteRatingBefore int      `json:"white_rating_before"`
	BlackRatingBefore int      `json:"black_rating_before"`
	WhiteRatingAfter  int      `json:"white_rating_after"`
	BlackRatingAfter  int      `json:"black_rating_after"`
	PlayedAt          int64    `json:"played_at"`
}

// Record keys:
//   - "record:{account_id}:{timestamp_padded}:{session_id}" -> full record,
//     once per participant, so each account's history is a prefix scan in
//     chronological order (19-digit zero padding keeps lexicographic = time).
//   - "record_by_id:{session_id}" -> full record, and the write-once guard.
func recordGuardKey(sessionID string) []byte {
	return []byte("record_by_id:" + sessionID)
}

func recordHistoryKey(accountID string, r domain.CompletedRecord) []byte {
	return []byte(fmt.Sprintf("record:%s:%019d:%s", accountID, r.PlayedAt.UnixNano(), r.SessionID))
}

// ApplySettlement durably applies one settlement in a single transaction:
// the record under its guard and history keys plus both accounts' ratings
// and counters. Either everything lands or nothing does, so a retry after
// a failure can never double-count a game. A second call for the same
// session returns ErrRecordExists.
func (r RecordRepository) ApplySettlement(record domain.CompletedRecord) error {
	data, err := json.Marshal(fromRecord(record))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(recordGuardKey(record.SessionID)); err == nil {
			return errors.ErrRecordExists
		}
		if err := txn.Set(recordGuardKey(record.SessionID), data); err != nil {
			return err
		}
		for _, accountID := range []string{record.WhiteID, record.BlackID} {
			if err := txn.Set(recordHistoryKey(accountID, record), data); err != nil {
				return err
			}
			if err := r.applyToAccount(txn, accountID, record); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r RecordRepository) applyToAccount(txn *badger.Txn, accountID string, record domain.CompletedRecord) error {
	acc, err := readAccountByID(txn, accountID)
	if err != nil {
		return fmt.Errorf("settle account %s: %w", accountID, err)
	}

	seat := domain.RoleWhite
	if accountID == record.BlackID {
		seat = domain.RoleBlack
	}
	acc.GamesPlayed++
	switch {
	case record.Outcome == domain.OutcomeDraw:
		acc.GamesDrawn++
	case record.Outcome.Winner() == seat:
		acc.GamesWon++
	default:
		acc.GamesLost++
	}

	if accountID == record.WhiteID {
		acc.Rating = record.WhiteRatingAfter
	} else {
		acc.Rating = record.BlackRatingAfter
	}
	return writeAccount(txn, acc)
}

func (r RecordRepository) GetBySession(sessionID string) (domain.CompletedRecord, error) {
	var rec diskRecord
	err := r.db.View(func(txn *badger.Txn) error {
		return readJSON(txn, recordGuardKey(sessionID), &rec)
	})
	if err == badger.ErrKeyNotFound {
		return domain.CompletedRecord{}, errors.ErrSessionNotFound
	}
	if err != nil {
		return domain.CompletedRecord{}, err
	}
	return toRecord(rec), nil
}

// HistoryFor returns an account's games, most recent first.
func (r RecordRepository) HistoryFor(accountID string, limit int) ([]domain.CompletedRecord, error) {
	var records []domain.CompletedRecord
	err := r.db.View(func(txn *badger.Txn) error {
		prefixStr := "record:" + accountID + ":"
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key for this prefix.
		seekKey := append([]byte(prefixStr), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(records) == limit {
				break
			}
			var rec diskRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			records = append(records, toRecord(rec))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func fromRecord(r domain.CompletedRecord) diskRecord {
	return diskRecord{
		SessionID:         r.SessionID,
		Class:             string(r.Class),
		WhiteID:           r.WhiteID,
		BlackID:           r.BlackID,
		Outcome:           string(r.Outcome),
		Reason:            string(r.Reason),
		Moves:             r.Moves,
		WhiteRatingBefore: r.WhiteRatingBefore,
		BlackRatingBefore: r.BlackRatingBefore,
		WhiteRatingAfter:  r.WhiteRatingAfter,
		BlackRatingAfter:  r.BlackRatingAfter,
		PlayedAt:          r.PlayedAt.UnixNano(),
	}
}

func toRecord(r diskRecord) domain.CompletedRecord {
	return domain.CompletedRecord{
		SessionID:         r.SessionID,
		Class:             domain.Class(r.Class),
		WhiteID:           r.WhiteID,
		BlackID:           r.BlackID,
		Outcome:           domain.Outcome(r.Outcome),
		Reason:            domain.TerminateReason(r.Reason),
		Moves:             r.Moves,
		WhiteRatingBefore: r.WhiteRatingBefore,
		BlackRatingBefore: r.BlackRatingBefore,
		WhiteRatingAfter:  r.WhiteRatingAfter,
		BlackRatingAfter:  r.BlackRatingAfter,
		PlayedAt:          time.Unix(0, r.PlayedAt).UTC(),
	}
}
