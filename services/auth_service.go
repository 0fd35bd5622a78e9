package services

import (
	"fmt"

	"ludarena/auth"
	"ludarena/errors"
	"ludarena/repositories"
)

type IAuthService interface {
	Login(username, password string) (Token, error)
	Register(username, password string) (Token, error)
}

type AuthService struct {
	accountRepository repositories.IAccountRepository
	tokens            *auth.TokenManager
}

type Token string

func NewAuthService(repo repositories.IAccountRepository, tokens *auth.TokenManager) IAuthService {
	return &AuthService{accountRepository: repo, tokens: tokens}
}

func (s *AuthService) Register(username, password string) (Token, error) {
	valReq := auth.RegisterRequest{
		Username: username,
		Password: password,
	}

	// Validate business rules before any expensive cryptographic work.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hash in the service layer so the repository never sees a plain
	// password.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	account, err := s.accountRepository.Create(username, hashedPassword)
	if err != nil {
		return "", err // propagates ErrUserAlreadyExists when taken
	}

	token, err := s.tokens.Generate(account.ID, account.Username)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}

func (s *AuthService) Login(username, password string) (Token, error) {
	account, err := s.accountRepository.GetByUsername(username)
	if err != nil {
		// Generic error to prevent account enumeration attacks
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, account.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(account.ID, account.Username)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	if err := s.accountRepository.TouchLastLogin(account.ID); err != nil {
		// Login still succeeds; the timestamp is informational.
		return Token(token), nil
	}
	return Token(token), nil
}
