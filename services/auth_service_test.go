package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ludarena/auth"
	"ludarena/domain"
	"ludarena/errors"
	"ludarena/mocks"
)

func testTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-secret-at-least-32-chars-long", 24*time.Hour)
}

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIAccountRepository(ctrl)
	svc := NewAuthService(mockRepo, testTokens())

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		username := "magnus13"
		password := "ComplexPass123"

		// Create must receive a hashed password, never the plain one.
		mockRepo.EXPECT().
			Create(username, gomock.Any()).
			DoAndReturn(func(name, hash string) (domain.Account, error) {
				req.NotEqual(password, hash)
				return domain.Account{ID: "account-uuid", Username: name}, nil
			}).
			Times(1)

		token, err := svc.Register(username, password)

		req.NoError(err)
		req.NotEmpty(token)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)

		// Repository should NEVER be called
		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		token, err := svc.Register("magnus13", "simple")

		req.Error(err)
		req.ErrorIs(err, errors.ErrInvalidPassword)
		req.Empty(token)
	})

	t.Run("should fail when username already exists in repository", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			Create("duplicate", gomock.Any()).
			Return(domain.Account{}, errors.ErrUserAlreadyExists).
			Times(1)

		_, err := svc.Register("duplicate", "ComplexPass123")

		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIAccountRepository(ctrl)
	tokens := testTokens()
	svc := NewAuthService(mockRepo, tokens)

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)
		username := "magnus13"
		password := "Secret123456"

		hashedPassword, _ := auth.HashPassword(password)
		stored := domain.Account{
			ID:           "uuid-123",
			Username:     username,
			PasswordHash: hashedPassword,
		}

		mockRepo.EXPECT().GetByUsername(username).Return(stored, nil).Times(1)
		mockRepo.EXPECT().TouchLastLogin(stored.ID).Return(nil).Times(1)

		token, err := svc.Login(username, password)

		req.NoError(err)
		req.NotEmpty(token)

		claims, err := tokens.Validate(string(token))
		req.NoError(err)
		req.Equal(stored.ID, claims.AccountID)
		req.Equal(username, claims.Username)
	})

	t.Run("should return invalid credentials on wrong password", func(t *testing.T) {
		req := require.New(t)

		hashedPassword, _ := auth.HashPassword("CorrectPassword123")
		stored := domain.Account{Username: "magnus13", PasswordHash: hashedPassword}

		mockRepo.EXPECT().GetByUsername("magnus13").Return(stored, nil).Times(1)

		_, err := svc.Login("magnus13", "WrongPassword123")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should return invalid credentials when account is not found", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetByUsername("unknown").
			Return(domain.Account{}, errors.ErrAccountNotFound).
			Times(1)

		_, err := svc.Login("unknown", "anyPassword")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})
}
