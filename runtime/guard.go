package runtime

import (
	stderrors "errors"
	"guild-chat/domain"
	"guild-chat/errors"
	"guild-chat/repositories"

	"github.com/dgraph-io/badger/v4"
)

// AccessGuard answers "may user U act in room R" against current durable
// state. Deliberately uncached: a revoked guild membership must deny the
// very next call, so every check hits the store.
type AccessGuard struct {
	channels repositories.IChannelRepository
	guilds   repositories.IGuildRepository
}

func NewAccessGuard(channels repositories.IChannelRepository, guilds repositories.IGuildRepository) *AccessGuard {
	return &AccessGuard{channels: channels, guilds: guilds}
}

// CanJoin returns nil when the user may subscribe to the room,
// ErrForbidden when membership is missing, ErrNotFound when the room has no
// backing channel or guild.
func (g *AccessGuard) CanJoin(userID string, roomID domain.RoomID) error {
	return g.authorize(userID, roomID)
}

// CanPost applies the same rule as CanJoin: membership does not imply
// elevated posting rights in this system, no roles gate posting.
func (g *AccessGuard) CanPost(userID string, roomID domain.RoomID) error {
	return g.authorize(userID, roomID)
}

func (g *AccessGuard) authorize(userID string, roomID domain.RoomID) error {
	if roomID.IsDirect() {
		a, b, ok := roomID.Participants()
		if !ok {
			return errors.ErrNotFound
		}
		if userID != a && userID != b {
			return errors.ErrForbidden
		}
		return nil
	}

	channel, err := g.channels.GetChannel(string(roomID))
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrNotFound
		}
		return err
	}

	member, err := g.guilds.IsMember(userID, channel.GuildID)
	if err != nil {
		return err
	}
	if !member {
		return errors.ErrForbidden
	}
	return nil
}
