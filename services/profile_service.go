package services

import (
	"github.com/samber/lo"

	"ludarena/domain"
	"ludarena/repositories"
)

// Profile is the public face of an account: everything except the
// credentials.
type Profile struct {
	ID          string
	Username    string
	Rating      int
	GamesPlayed int
	GamesWon    int
	GamesLost   int
	GamesDrawn  int
}

type IProfileService interface {
	Get(accountID string) (Profile, error)
	Leaderboard(limit int) ([]Profile, error)
	History(accountID string, limit int) ([]domain.CompletedRecord, error)
}

type ProfileService struct {
	accounts repositories.IAccountRepository
	records  repositories.IRecordRepository
}

func NewProfileService(accounts repositories.IAccountRepository, records repositories.IRecordRepository) *ProfileService {
	return &ProfileService{accounts: accounts, records: records}
}

func (s *ProfileService) Get(accountID string) (Profile, error) {
	account, err := s.accounts.GetByID(accountID)
	if err != nil {
		return Profile{}, err
	}
	return toProfile(account), nil
}

func (s *ProfileService) Leaderboard(limit int) ([]Profile, error) {
	accounts, err := s.accounts.Leaderboard(limit)
	if err != nil {
		return nil, err
	}
	return lo.Map(accounts, func(account domain.Account, _ int) Profile {
		return toProfile(account)
	}), nil
}

func (s *ProfileService) History(accountID string, limit int) ([]domain.CompletedRecord, error) {
	// Resolve the account first so an unknown id is an error rather
	// than an empty history.
	if _, err := s.accounts.GetByID(accountID); err != nil {
		return nil, err
	}
	return s.records.HistoryFor(accountID, limit)
}

func toProfile(account domain.Account) Profile {
	return Profile{
		ID:          account.ID,
		Username:    account.Username,
		Rating:      account.Rating,
		GamesPlayed: account.GamesPlayed,
		GamesWon:    account.GamesWon,
		GamesLost:   account.GamesLost,
		GamesDrawn:  account.GamesDrawn,
	}
}
