package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MonMotDePasseTr0pSûr!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("MauvaisMDP", hash)
	req.NoError(err)
	req.False(match)
}

func TestRegistrationValidation(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"Valid request", RegisterRequest{"magnus13", "ComplexPass123"}, false},
		{"Username too short", RegisterRequest{"ab", "ComplexPass123"}, true},
		{"Username not alphanumeric", RegisterRequest{"mag nus!", "ComplexPass123"}, true},
		{"Password too short", RegisterRequest{"magnus13", "Shor1"}, true},
		{"Missing digit", RegisterRequest{"magnus13", "NoDigitPass"}, true},
		{"Missing uppercase", RegisterRequest{"magnus13", "nouppercase123"}, true},
		{"Password too long (edge case)", RegisterRequest{"magnus13", strings.Repeat("a", 73)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.req)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret-at-least-32-chars-long", time.Hour)

	token, err := manager.Generate("account-1", "magnus13")
	req.NoError(err)

	claims, err := manager.Validate(token)
	req.NoError(err)
	req.Equal("account-1", claims.AccountID)
	req.Equal("magnus13", claims.Username)
	req.Equal("ludarena", claims.Issuer)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("secret-one-that-is-long-enough-x", time.Hour)
	other := NewTokenManager("secret-two-that-is-long-enough-x", time.Hour)

	token, err := manager.Generate("account-1", "magnus13")
	req.NoError(err)

	_, err = other.Validate(token)
	req.Error(err)
}

func TestTokenExpires(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret-at-least-32-chars-long", -time.Minute)

	token, err := manager.Generate("account-1", "magnus13")
	req.NoError(err)

	_, err = manager.Validate(token)
	req.Error(err)
}

// BenchmarkHashPassword measures the CPU cost of registration hashing.
func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!")
	}
}
