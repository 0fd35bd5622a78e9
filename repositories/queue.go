//go:generate go run go.uber.org/mock/mockgen -source=queue.go -destination=../mocks/mock_queue_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"ludarena/domain"
)

// IQueueSnapshotRepository mirrors the matchmaking queue to disk. One
// entry per account, matching the in-memory invariant.
type IQueueSnapshotRepository interface {
	Put(e domain.QueueEntry) error
	Delete(accountID string) error
	All() ([]domain.QueueEntry, error)
}

type QueueSnapshotRepository struct {
	db *badger.DB
}

func NewQueueSnapshotRepository(db *badger.DB) QueueSnapshotRepository {
	return QueueSnapshotRepository{db: db}
}

type diskQueueEntry struct {
	AccountID string `json:"account_id"`
	Rating    int    `json:"rating"`
	Class     string `json:"class"`
	JoinedAt  int64  `json:"joined_at"`
}

func queueKey(accountID string) []byte { return []byte("queue:" + accountID) }

func (q QueueSnapshotRepository) Put(e domain.QueueEntry) error {
	data, err := json.Marshal(diskQueueEntry{
		AccountID: e.AccountID,
		Rating:    e.Rating,
		Class:     string(e.Class),
		JoinedAt:  e.JoinedAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return q.db.Update(func(txn *badger.Txn) error {
		return txn.Set(queueKey(e.AccountID), data)
	})
}

func (q QueueSnapshotRepository) Delete(accountID string) error {
	return q.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(queueKey(accountID))
	})
}

func (q QueueSnapshotRepository) All() ([]domain.QueueEntry, error) {
	var entries []domain.QueueEntry
	err := q.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("queue:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var de diskQueueEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &de)
			})
			if err != nil {
				return err
			}
			entries = append(entries, domain.QueueEntry{
				AccountID: de.AccountID,
				Rating:    de.Rating,
				Class:     domain.Class(de.Class),
				JoinedAt:  time.Unix(0, de.JoinedAt).UTC(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
