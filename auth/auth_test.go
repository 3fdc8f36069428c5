package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MySuperS3cure!Password"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	// Negative comparison (wrong password)
	match, err = ComparePassword("WrongPassword1!", hash)
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
		{"Valid request", RegisterRequest{"test@example.com", "alice", "ComplexPass123!"}, false},
		{"Invalid email", RegisterRequest{"notanemail", "alice", "ComplexPass123!"}, true},
		{"Missing username", RegisterRequest{"test@example.com", "", "ComplexPass123!"}, true},
		{"Password too short", RegisterRequest{"test@example.com", "alice", "Short1!"}, true},
		{"Missing digit", RegisterRequest{"test@example.com", "alice", "NoDigitPassword!"}, true},
		{"Missing special char", RegisterRequest{"test@example.com", "alice", "NoSpecialChar123"}, true},
		{"Missing uppercase", RegisterRequest{"test@example.com", "alice", "nouppercase123!!"}, true},
		{"Password too long", RegisterRequest{"test@example.com", "alice", strings.Repeat("a", 73)}, true},
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

	token, err := GenerateToken("user-1", "alice", time.Hour)
	req.NoError(err)

	claims, err := ValidateToken(token)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)
	req.Equal("alice", claims.Username)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("user-1", "alice", -time.Minute)
	req.NoError(err)

	_, err = ValidateToken(token)
	req.Error(err)
}
