package event

import (
	"guild-chat/domain"
	"time"

	"github.com/google/uuid"
)

// RoomEvent is anything the core fans out to the live members of a room.
type RoomEvent interface {
	RoomID() domain.RoomID
}

// MessageDelivered carries a durably persisted message to live members.
// It is only ever emitted after the storage write succeeded.
type MessageDelivered struct {
	ID         uuid.UUID
	Room       domain.RoomID
	AuthorID   string
	AuthorName string
	Content    string
	At         time.Time
}

func (e MessageDelivered) RoomID() domain.RoomID { return e.Room }

// UserJoined is a presence delta. Advisory only; membership truth is always
// recomputed from the registry, never accumulated from these events.
type UserJoined struct {
	Room        domain.RoomID
	ConnID      domain.ConnectionID
	DisplayName string
	At          time.Time
}

func (e UserJoined) RoomID() domain.RoomID { return e.Room }

type UserLeft struct {
	Room        domain.RoomID
	ConnID      domain.ConnectionID
	DisplayName string
	At          time.Time
}

func (e UserLeft) RoomID() domain.RoomID { return e.Room }

type UserTyping struct {
	Room        domain.RoomID
	ConnID      domain.ConnectionID
	DisplayName string
	IsTyping    bool
}

func (e UserTyping) RoomID() domain.RoomID { return e.Room }
