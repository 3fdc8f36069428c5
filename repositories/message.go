//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"guild-chat/domain"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Order int

const (
	OldestFirst Order = iota
	NewestFirst
)

type IMessageRepository interface {
	CreateMessage(authorID, authorName string, room domain.RoomID, content string) (domain.Message, error)
	ListMessages(room domain.RoomID, limit int, order Order) ([]domain.Message, error)
	CountMessages(room domain.RoomID) (int, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) IMessageRepository {
	return &MessageRepository{db: db, log: log}
}

// diskMessage is the storage-layer shape of a message.
type diskMessage struct {
	ID         uuid.UUID `json:"id"`
	Room       string    `json:"room"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	At         time.Time `json:"at"`
}

// messageKey formats keys as "msg:{room}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using the UUID as a collision disconnector if
//     two messages arrive at the same nanosecond.
func messageKey(room domain.RoomID, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", room, at.UnixNano(), id))
}

// CreateMessage assigns the server-side identity and timestamp and persists
// the message. The returned message is the durable record callers fan out.
func (m *MessageRepository) CreateMessage(authorID, authorName string, room domain.RoomID, content string) (domain.Message, error) {
	msg := domain.Message{
		ID:         uuid.New(),
		Room:       room,
		AuthorID:   authorID,
		AuthorName: authorName,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	data, err := json.Marshal(toDiskMessage(msg))
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(room, msg.CreatedAt, msg.ID), data)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// ListMessages retrieves up to limit messages for a room using a prefix
// scan. Thanks to the padded timestamp in the key, messages are naturally
// sorted by time; NewestFirst walks the prefix in reverse.
func (m *MessageRepository) ListMessages(room domain.RoomID, limit int, order Order) ([]domain.Message, error) {
	var disk []diskMessage
	prefixStr := fmt.Sprintf("msg:%s:", room)
	prefix := []byte(prefixStr)

	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = order == NewestFirst
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := prefix
		if order == NewestFirst {
			// Seek past the newest possible key, then walk backward.
			seekKey = append([]byte(prefixStr), []byte("9999999999999999999")...)
		}

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(disk) == limit {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", limit))
				break
			}
			var dm diskMessage
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &dm)
			})
			if err != nil {
				return err
			}
			disk = append(disk, dm)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return lo.Map(disk, func(dm diskMessage, _ int) domain.Message {
		return fromDiskMessage(dm)
	}), nil
}

func (m *MessageRepository) CountMessages(room domain.RoomID) (int, error) {
	count := 0
	prefix := []byte(fmt.Sprintf("msg:%s:", room))

	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func toDiskMessage(msg domain.Message) diskMessage {
	return diskMessage{
		ID:         msg.ID,
		Room:       string(msg.Room),
		AuthorID:   msg.AuthorID,
		AuthorName: msg.AuthorName,
		Content:    msg.Content,
		At:         msg.CreatedAt,
	}
}

func fromDiskMessage(dm diskMessage) domain.Message {
	return domain.Message{
		ID:         dm.ID,
		Room:       domain.RoomID(dm.Room),
		AuthorID:   dm.AuthorID,
		AuthorName: dm.AuthorName,
		Content:    dm.Content,
		CreatedAt:  dm.At,
	}
}
