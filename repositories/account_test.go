package repositories

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"ludarena/domain"
	"ludarena/errors"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Create_And_Fetch_Account(t *testing.T) {
	req := require.New(t)
	repository := NewAccountRepository(openTestDB(t))

	created, err := repository.Create("alice", "hashed-secret")
	req.NoError(err)
	req.NotEmpty(created.ID)
	req.Equal(domain.DefaultRating, created.Rating)
	req.Zero(created.GamesPlayed)
	req.Nil(created.LastLogin)

	byName, err := repository.GetByUsername("alice")
	req.NoError(err)
	req.Equal(created.ID, byName.ID)
	req.Equal("hashed-secret", byName.PasswordHash)

	byID, err := repository.GetByID(created.ID)
	req.NoError(err)
	req.Equal("alice", byID.Username)
}

func Test_Create_Duplicate_Username_Fails(t *testing.T) {
	req := require.New(t)
	repository := NewAccountRepository(openTestDB(t))

	_, err := repository.Create("alice", "hash1")
	req.NoError(err)
	_, err = repository.Create("alice", "hash2")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func Test_Get_Unknown_Account(t *testing.T) {
	req := require.New(t)
	repository := NewAccountRepository(openTestDB(t))

	_, err := repository.GetByUsername("nobody")
	req.ErrorIs(err, errors.ErrAccountNotFound)
	_, err = repository.GetByID("no-such-id")
	req.ErrorIs(err, errors.ErrAccountNotFound)
}

func Test_Touch_Last_Login(t *testing.T) {
	req := require.New(t)
	repository := NewAccountRepository(openTestDB(t))

	created, err := repository.Create("alice", "hash")
	req.NoError(err)

	req.NoError(repository.TouchLastLogin(created.ID))

	fetched, err := repository.GetByID(created.ID)
	req.NoError(err)
	req.NotNil(fetched.LastLogin)
}

func Test_Leaderboard_Orders_By_Rating(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	accounts := NewAccountRepository(db)
	records := NewRecordRepository(db, testLogger())

	alice, err := accounts.Create("alice", "hash")
	req.NoError(err)
	bob, err := accounts.Create("bob", "hash")
	req.NoError(err)
	_, err = accounts.Create("clara", "hash")
	req.NoError(err)

	// Alice beats Bob, pushing her above the pack.
	req.NoError(records.ApplySettlement(sampleRecord("s1", alice.ID, bob.ID, domain.OutcomeWhiteWins)))

	board, err := accounts.Leaderboard(2)
	req.NoError(err)
	req.Len(board, 2)
	req.Equal("alice", board[0].Username)
	req.Greater(board[0].Rating, board[1].Rating)
}

func Test_Leaderboard_Skips_Accounts_Without_Games(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	accounts := NewAccountRepository(db)
	records := NewRecordRepository(db, testLogger())

	alice, err := accounts.Create("alice", "hash")
	req.NoError(err)
	bob, err := accounts.Create("bob", "hash")
	req.NoError(err)
	_, err = accounts.Create("rookie", "hash")
	req.NoError(err)

	// Fresh accounts sit at the default rating; without the played
	// filter they would outrank every player who ever lost a game.
	board, err := accounts.Leaderboard(10)
	req.NoError(err)
	req.Empty(board)

	req.NoError(records.ApplySettlement(sampleRecord("s1", alice.ID, bob.ID, domain.OutcomeWhiteWins)))

	board, err = accounts.Leaderboard(10)
	req.NoError(err)
	req.Len(board, 2)
	for _, entry := range board {
		req.NotEqual("rookie", entry.Username)
		req.Positive(entry.GamesPlayed)
	}
}
