// Package domain contains core concepts of the chat system.
// This file defines live Session state and room addressing.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"strings"
	"time"
)

// ConnectionID identifies one live connection. Opaque, unique while the
// connection is up, reusable after disconnect.
type ConnectionID string

// RoomID is the runtime addressing unit for fan-out. For guild channels it
// equals the channel identifier; direct conversations use the "dm:" form.
type RoomID string

const directRoomPrefix = "dm:"

// DirectRoom builds the canonical room identifier for a two-party
// conversation. Participant order does not matter.
func DirectRoom(userA, userB string) RoomID {
	if userB < userA {
		userA, userB = userB, userA
	}
	return RoomID(directRoomPrefix + userA + ":" + userB)
}

// IsDirect reports whether the room addresses a direct conversation
// rather than a guild channel.
func (r RoomID) IsDirect() bool {
	return strings.HasPrefix(string(r), directRoomPrefix)
}

// Participants returns the two user IDs of a direct room, or false when the
// room is not a direct conversation.
func (r RoomID) Participants() (string, string, bool) {
	if !r.IsDirect() {
		return "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(string(r), directRoomPrefix), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Session is the ephemeral state of one live connection. A connection
// belongs to at most one room at a time; Room stays empty until the first
// join and is replaced on each subsequent join (last join wins).
// Sessions are owned exclusively by the registry.
type Session struct {
	ConnID      ConnectionID
	UserID      string
	DisplayName string
	Room        RoomID
	JoinedAt    time.Time
}
