package runtime

import (
	"context"
	"guild-chat/domain"
	"guild-chat/domain/event"
	"guild-chat/errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type nopSink struct{}

func (nopSink) Consume(ctx context.Context, e event.RoomEvent) error { return nil }

func TestRegistry_Register_And_Lookup(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(NewRoomIndex())
	connID := domain.ConnectionID(uuid.NewString())

	// Given no session is registered
	req.Nil(registry.Lookup(connID))

	// When a connection registers
	session, err := registry.Register(connID, "user-1", "alice", nopSink{})
	req.NoError(err)

	// Then the session is retrievable, with no room yet
	req.Equal(connID, session.ConnID)
	req.Equal("alice", session.DisplayName)
	req.Empty(session.Room)

	found := registry.Lookup(connID)
	req.NotNil(found)
	req.Equal("user-1", found.UserID)
}

func TestRegistry_Register_DuplicateConnection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(NewRoomIndex())
	connID := domain.ConnectionID(uuid.NewString())

	_, err := registry.Register(connID, "user-1", "alice", nopSink{})
	req.NoError(err)

	// When the same connection ID registers again
	_, err = registry.Register(connID, "user-2", "bob", nopSink{})

	// Then the registry refuses it
	req.ErrorIs(err, errors.ErrDuplicateConnection)
}

func TestRegistry_SetRoom_MovesIndexMembership(t *testing.T) {
	req := require.New(t)
	index := NewRoomIndex()
	registry := NewRegistry(index)
	connID := domain.ConnectionID(uuid.NewString())
	_, err := registry.Register(connID, "user-1", "alice", nopSink{})
	req.NoError(err)

	// When the connection joins "general" then "random"
	prev, err := registry.SetRoom(connID, "general")
	req.NoError(err)
	req.Empty(prev)

	prev, err = registry.SetRoom(connID, "random")
	req.NoError(err)
	req.Equal(domain.RoomID("general"), prev)

	// Then the index no longer lists the connection under "general"
	req.Empty(index.MembersOf("general"))
	req.Equal([]domain.ConnectionID{connID}, index.MembersOf("random"))
	req.Equal(domain.RoomID("random"), registry.Lookup(connID).Room)
}

func TestRegistry_SetRoom_UnknownConnection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(NewRoomIndex())

	_, err := registry.SetRoom("ghost", "general")

	req.ErrorIs(err, errors.ErrUnknownConnection)
}

func TestRegistry_Unregister_Idempotent(t *testing.T) {
	req := require.New(t)
	index := NewRoomIndex()
	registry := NewRegistry(index)
	connID := domain.ConnectionID(uuid.NewString())
	_, err := registry.Register(connID, "user-1", "alice", nopSink{})
	req.NoError(err)
	_, err = registry.SetRoom(connID, "general")
	req.NoError(err)

	// When the connection disconnects
	session := registry.Unregister(connID)

	// Then its prior state is returned and no membership lingers
	req.NotNil(session)
	req.Equal(domain.RoomID("general"), session.Room)
	req.Empty(index.MembersOf("general"))
	req.Nil(registry.Lookup(connID))

	// And a double disconnect is not an error
	req.Nil(registry.Unregister(connID))
}

func TestRegistry_SinksForRoom_SkipsDisconnected(t *testing.T) {
	req := require.New(t)
	index := NewRoomIndex()
	registry := NewRegistry(index)

	connA := domain.ConnectionID(uuid.NewString())
	connB := domain.ConnectionID(uuid.NewString())
	_, err := registry.Register(connA, "user-a", "alice", nopSink{})
	req.NoError(err)
	_, err = registry.Register(connB, "user-b", "bob", nopSink{})
	req.NoError(err)
	_, err = registry.SetRoom(connA, "general")
	req.NoError(err)
	_, err = registry.SetRoom(connB, "general")
	req.NoError(err)

	req.Len(registry.SinksForRoom("general"), 2)

	// When one member disconnects
	registry.Unregister(connB)

	// Then only the live sink remains
	req.Len(registry.SinksForRoom("general"), 1)
}

func TestRegistry_RoomMembers_RecomputesFromSessions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(NewRoomIndex())

	connA := domain.ConnectionID(uuid.NewString())
	connB := domain.ConnectionID(uuid.NewString())
	_, err := registry.Register(connA, "user-a", "alice", nopSink{})
	req.NoError(err)
	_, err = registry.Register(connB, "user-b", "bob", nopSink{})
	req.NoError(err)
	_, err = registry.SetRoom(connA, "general")
	req.NoError(err)
	_, err = registry.SetRoom(connB, "general")
	req.NoError(err)

	members := registry.RoomMembers("general")
	req.Len(members, 2)

	names := []string{members[0].DisplayName, members[1].DisplayName}
	req.ElementsMatch([]string{"alice", "bob"}, names)
}
