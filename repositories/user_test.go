package repositories

import (
	"guild-chat/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_User_Creation_And_Lookup(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	// Given a stored account
	id, err := repository.CreateUser("alice@example.com", "alice", "hashed")
	req.NoError(err)
	req.NotEmpty(id)

	// When looking it up by email
	user, err := repository.GetUserByEmail("alice@example.com")

	// Then the record round trips with its generated ID
	req.NoError(err)
	req.Equal(id, user.ID)
	req.Equal("alice", user.Username)
	req.Equal("hashed", user.PasswordHash)
	req.False(user.CreatedAt.IsZero())
}

func Test_User_Email_Is_Unique(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.CreateUser("alice@example.com", "alice", "hashed")
	req.NoError(err)

	// A second registration under the same email is refused
	_, err = repository.CreateUser("alice@example.com", "impostor", "other")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func Test_Unknown_User_Lookup(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.GetUserByEmail("nobody@example.com")
	req.Error(err)
}
