package repositories

import (
	"guild-chat/domain"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Create_And_List_Sorted_Messages(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	room := domain.RoomID("general")

	// Given three messages stored in submission order
	for _, content := range []string{"first", "second", "third"} {
		_, err := repository.CreateMessage("user-a", "Alice", room, content)
		req.NoError(err)
	}

	// When fetching oldest first
	messages, err := repository.ListMessages(room, 0, OldestFirst)
	req.NoError(err)

	// Then the key scheme keeps them chronologically sorted
	req.Len(messages, 3)
	req.Equal("first", messages[0].Content)
	req.Equal("third", messages[2].Content)

	// And newest first reverses the walk
	reversed, err := repository.ListMessages(room, 0, NewestFirst)
	req.NoError(err)
	req.Equal("third", reversed[0].Content)
}

func Test_List_Messages_Limit(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	room := domain.RoomID("general")

	for _, content := range []string{"first", "second", "third"} {
		_, err := repository.CreateMessage("user-a", "Alice", room, content)
		req.NoError(err)
	}

	messages, err := repository.ListMessages(room, 2, NewestFirst)
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal("third", messages[0].Content)
}

func Test_Messages_Are_Scoped_Per_Room(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	_, err := repository.CreateMessage("user-a", "Alice", "general", "hello general")
	req.NoError(err)
	_, err = repository.CreateMessage("user-a", "Alice", "random", "hello random")
	req.NoError(err)

	messages, err := repository.ListMessages("general", 0, OldestFirst)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("hello general", messages[0].Content)

	count, err := repository.CountMessages("random")
	req.NoError(err)
	req.Equal(1, count)
}

func Test_Created_Message_Is_Immediately_Retrievable(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	room := domain.RoomID("general")

	msg, err := repository.CreateMessage("user-a", "Alice", room, "hi")
	req.NoError(err)

	messages, err := repository.ListMessages(room, 0, OldestFirst)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(msg.ID, messages[0].ID)
	req.Equal("hi", messages[0].Content)
	req.False(messages[0].CreatedAt.IsZero())
}
