//go:generate go run go.uber.org/mock/mockgen -source=account.go -destination=../mocks/mock_account_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"ludarena/domain"
	"ludarena/errors"
)

type IAccountRepository interface {
	Create(username, hashedPassword string) (domain.Account, error)
	GetByUsername(username string) (domain.Account, error)
	GetByID(id string) (domain.Account, error)
	TouchLastLogin(id string) error
	Leaderboard(limit int) ([]domain.Account, error)
}

type AccountRepository struct {
	db *badger.DB
}

func NewAccountRepository(db *badger.DB) AccountRepository {
	return AccountRepository{db: db}
}

// diskAccount is the stored shape. Kept separate from domain.Account so
// the on-disk layout can evolve without touching callers.
type diskAccount struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Rating       int    `json:"rating"`
	GamesPlayed  int    `json:"games_played"`
	GamesWon     int    `json:"games_won"`
	GamesLost    int    `json:"games_lost"`
	GamesDrawn   int    `json:"games_drawn"`
	CreatedAt    int64  `json:"created_at"`
	LastLogin    int64  `json:"last_login,omitempty"` // 0 means never
}

// Accounts live under two keys:
//   - "account:{username}"  -> full record (login path)
//   - "account_id:{uuid}"   -> username     (lookup by id)
//
// Both are written in the same transaction so neither can exist alone.
func accountKey(username string) []byte { return []byte("account:" + username) }
func accountIDKey(id string) []byte     { return []byte("account_id:" + id) }

// Create persists a fresh account at the starting rating. The username
// key doubles as the uniqueness guard.
func (a AccountRepository) Create(username, hashedPassword string) (domain.Account, error) {
	acc := diskAccount{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hashedPassword,
		Rating:       domain.DefaultRating,
		CreatedAt:    time.Now().Unix(),
	}
	data, err := json.Marshal(acc)
	if err != nil {
		return domain.Account{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = a.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(accountKey(username)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(accountKey(username), data); err != nil {
			return err
		}
		return txn.Set(accountIDKey(acc.ID), []byte(username))
	})
	if err != nil {
		return domain.Account{}, err
	}
	return toAccount(acc), nil
}

func (a AccountRepository) GetByUsername(username string) (domain.Account, error) {
	var acc diskAccount
	err := a.db.View(func(txn *badger.Txn) error {
		return readJSON(txn, accountKey(username), &acc)
	})
	if err == badger.ErrKeyNotFound {
		return domain.Account{}, errors.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, err
	}
	return toAccount(acc), nil
}

func (a AccountRepository) GetByID(id string) (domain.Account, error) {
	var acc diskAccount
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(accountIDKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(username []byte) error {
			return readJSON(txn, accountKey(string(username)), &acc)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Account{}, errors.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, err
	}
	return toAccount(acc), nil
}

func (a AccountRepository) TouchLastLogin(id string) error {
	return a.db.Update(func(txn *badger.Txn) error {
		acc, err := readAccountByID(txn, id)
		if err != nil {
			return err
		}
		acc.LastLogin = time.Now().Unix()
		return writeAccount(txn, acc)
	})
}

// Leaderboard returns the top accounts by rating, skipping accounts
// that have never finished a game. A full prefix scan is fine here:
// accounts are small and the scan runs on the read path only.
func (a AccountRepository) Leaderboard(limit int) ([]domain.Account, error) {
	var accounts []domain.Account
	err := a.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte("account:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var acc diskAccount
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &acc)
			})
			if err != nil {
				return err
			}
			if acc.GamesPlayed == 0 {
				continue
			}
			accounts = append(accounts, toAccount(acc))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Rating != accounts[j].Rating {
			return accounts[i].Rating > accounts[j].Rating
		}
		return accounts[i].Username < accounts[j].Username
	})
	if limit > 0 && len(accounts) > limit {
		accounts = accounts[:limit]
	}
	return accounts, nil
}

func readJSON(txn *badger.Txn, key []byte, out any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func readAccountByID(txn *badger.Txn, id string) (diskAccount, error) {
	var acc diskAccount
	item, err := txn.Get(accountIDKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return diskAccount{}, errors.ErrAccountNotFound
		}
		return diskAccount{}, err
	}
	err = item.Value(func(username []byte) error {
		return readJSON(txn, accountKey(string(username)), &acc)
	})
	return acc, err
}

func writeAccount(txn *badger.Txn, acc diskAccount) error {
	data, err := json.Marshal(acc)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return txn.Set(accountKey(acc.Username), data)
}

func toAccount(acc diskAccount) domain.Account {
	out := domain.Account{
		ID:           acc.ID,
		Username:     acc.Username,
		PasswordHash: acc.PasswordHash,
		Rating:       acc.Rating,
		GamesPlayed:  acc.GamesPlayed,
		GamesWon:     acc.GamesWon,
		GamesLost:    acc.GamesLost,
		GamesDrawn:   acc.GamesDrawn,
		CreatedAt:    time.Unix(acc.CreatedAt, 0).UTC(),
	}
	if acc.LastLogin != 0 {
		t := time.Unix(acc.LastLogin, 0).UTC()
		out.LastLogin = &t
	}
	return out
}
