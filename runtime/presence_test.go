package runtime

import (
	"guild-chat/domain/event"
	"guild-chat/observability"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresence_EnqueuesDeltas(t *testing.T) {
	req := require.New(t)
	presence := NewPresence(slog.Default(), observability.NewStats(), 8)

	presence.AnnounceJoin("general", "conn-1", "alice")
	presence.AnnounceTyping("general", "conn-1", "alice", true)
	presence.AnnounceLeave("general", "conn-1", "alice")

	join := (<-presence.Events()).(event.UserJoined)
	req.Equal("alice", join.DisplayName)

	typing := (<-presence.Events()).(event.UserTyping)
	req.True(typing.IsTyping)

	left := (<-presence.Events()).(event.UserLeft)
	req.Equal("alice", left.DisplayName)
}

// A full buffer drops the delta instead of blocking the caller: presence
// is advisory and self-heals on the next room-users query.
func TestPresence_DropsWhenFull(t *testing.T) {
	req := require.New(t)
	stats := observability.NewStats()
	presence := NewPresence(slog.Default(), stats, 1)

	presence.AnnounceJoin("general", "conn-1", "alice")
	presence.AnnounceJoin("general", "conn-2", "bob")

	req.Equal(uint64(1), stats.Read().PresenceDropped)
	req.Len(presence.Events(), 1)
}
