//go:generate go run go.uber.org/mock/mockgen -source=channel.go -destination=../mocks/mock_channel_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"guild-chat/domain"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IChannelRepository interface {
	CreateChannel(guildID, name, description string) (domain.Channel, error)
	GetChannel(channelID string) (domain.Channel, error)
	ListChannels(guildID string) ([]domain.Channel, error)
}

type ChannelRepository struct {
	db *badger.DB
}

func NewChannelRepository(db *badger.DB) IChannelRepository {
	return &ChannelRepository{db: db}
}

func channelKey(channelID string) []byte {
	return []byte("channel:" + channelID)
}

// guildChannelKey is a secondary index entry pointing back to the channel,
// so ListChannels can prefix-scan per guild without a full table walk.
func guildChannelKey(guildID, channelID string) []byte {
	return []byte(fmt.Sprintf("guild-channel:%s:%s", guildID, channelID))
}

func (r *ChannelRepository) CreateChannel(guildID, name, description string) (domain.Channel, error) {
	channel := domain.Channel{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		GuildID:     guildID,
		CreatedAt:   time.Now().UTC(),
	}
	data, err := json.Marshal(channel)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(channelKey(channel.ID), data); err != nil {
			return err
		}
		return txn.Set(guildChannelKey(guildID, channel.ID), []byte(channel.ID))
	})
	if err != nil {
		return domain.Channel{}, err
	}
	return channel, nil
}

// GetChannel returns badger.ErrKeyNotFound untouched when the channel does
// not exist; the access guard maps it to the domain NotFound error.
func (r *ChannelRepository) GetChannel(channelID string) (domain.Channel, error) {
	var channel domain.Channel
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(channelKey(channelID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &channel)
		})
	})
	if err != nil {
		return domain.Channel{}, err
	}
	return channel, nil
}

func (r *ChannelRepository) ListChannels(guildID string) ([]domain.Channel, error) {
	var ids []string
	prefix := []byte("guild-channel:" + guildID + ":")

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	channels := make([]domain.Channel, 0, len(ids))
	for _, id := range ids {
		channel, err := r.GetChannel(id)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, nil
}
