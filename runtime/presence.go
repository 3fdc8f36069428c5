package runtime

import (
	"fmt"
	"guild-chat/domain"
	"guild-chat/domain/event"
	"guild-chat/observability"
	"log/slog"
	"time"
)

// Presence enqueues join/leave/typing deltas for asynchronous broadcast.
// Fire-and-forget: when the buffer is full the delta is dropped and
// counted, never blocked on. A missed event self-heals on the next
// room-users request, which recomputes membership from the registry.
type Presence struct {
	log    *slog.Logger
	stats  *observability.Stats
	events chan event.RoomEvent
}

func NewPresence(log *slog.Logger, stats *observability.Stats, bufferSize int) *Presence {
	return &Presence{
		log:    log,
		stats:  stats,
		events: make(chan event.RoomEvent, bufferSize),
	}
}

// Events exposes the queue drained by the presence fan-out worker.
func (p *Presence) Events() <-chan event.RoomEvent {
	return p.events
}

func (p *Presence) AnnounceJoin(roomID domain.RoomID, connID domain.ConnectionID, displayName string) {
	p.enqueue(event.UserJoined{
		Room:        roomID,
		ConnID:      connID,
		DisplayName: displayName,
		At:          time.Now().UTC(),
	})
}

func (p *Presence) AnnounceLeave(roomID domain.RoomID, connID domain.ConnectionID, displayName string) {
	p.enqueue(event.UserLeft{
		Room:        roomID,
		ConnID:      connID,
		DisplayName: displayName,
		At:          time.Now().UTC(),
	})
}

func (p *Presence) AnnounceTyping(roomID domain.RoomID, connID domain.ConnectionID, displayName string, isTyping bool) {
	p.enqueue(event.UserTyping{
		Room:        roomID,
		ConnID:      connID,
		DisplayName: displayName,
		IsTyping:    isTyping,
	})
}

func (p *Presence) enqueue(e event.RoomEvent) {
	select {
	case p.events <- e:
	default:
		p.stats.IncrPresenceDropped()
		p.log.Warn(fmt.Sprintf("Presence channel full for room %s, dropping delta", e.RoomID()))
	}
}
