//go:generate go run go.uber.org/mock/mockgen -source=guild.go -destination=../mocks/mock_guild_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"guild-chat/domain"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IGuildRepository interface {
	CreateGuild(name, ownerID string) (domain.Guild, error)
	GetGuild(guildID string) (domain.Guild, error)
	AddMember(userID, guildID, role string) error
	RemoveMember(userID, guildID string) error
	IsMember(userID, guildID string) (bool, error)
}

type GuildRepository struct {
	db *badger.DB
}

func NewGuildRepository(db *badger.DB) IGuildRepository {
	return &GuildRepository{db: db}
}

func guildKey(guildID string) []byte {
	return []byte("guild:" + guildID)
}

func memberKey(guildID, userID string) []byte {
	return []byte(fmt.Sprintf("member:%s:%s", guildID, userID))
}

// CreateGuild persists the guild and records the owner as its first member.
func (r *GuildRepository) CreateGuild(name, ownerID string) (domain.Guild, error) {
	guild := domain.Guild{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
	guildData, err := json.Marshal(guild)
	if err != nil {
		return domain.Guild{}, fmt.Errorf("marshal failed: %w", err)
	}
	membership := domain.GuildMembership{
		UserID:   ownerID,
		GuildID:  guild.ID,
		Role:     "owner",
		JoinedAt: guild.CreatedAt,
	}
	memberData, err := json.Marshal(membership)
	if err != nil {
		return domain.Guild{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(guildKey(guild.ID), guildData); err != nil {
			return err
		}
		return txn.Set(memberKey(guild.ID, ownerID), memberData)
	})
	if err != nil {
		return domain.Guild{}, err
	}
	return guild, nil
}

func (r *GuildRepository) GetGuild(guildID string) (domain.Guild, error) {
	var guild domain.Guild
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(guildKey(guildID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &guild)
		})
	})
	if err != nil {
		return domain.Guild{}, err
	}
	return guild, nil
}

func (r *GuildRepository) AddMember(userID, guildID, role string) error {
	membership := domain.GuildMembership{
		UserID:   userID,
		GuildID:  guildID,
		Role:     role,
		JoinedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(membership)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(guildKey(guildID)); err != nil {
			return err
		}
		return txn.Set(memberKey(guildID, userID), data)
	})
}

// RemoveMember revokes the membership. The next authorization check for
// this user in any of the guild's channels fails immediately; the guard
// never caches grants.
func (r *GuildRepository) RemoveMember(userID, guildID string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(memberKey(guildID, userID))
	})
}

func (r *GuildRepository) IsMember(userID, guildID string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(memberKey(guildID, userID))
		return err
	})
	switch err {
	case nil:
		return true, nil
	case badger.ErrKeyNotFound:
		return false, nil
	default:
		return false, err
	}
}
