package runtime

import (
	"guild-chat/contract"
	"guild-chat/domain"
	"guild-chat/errors"
	"sync"
	"time"
)

type entry struct {
	session domain.Session
	sink    contract.EventSink
}

// Registry maps live connections to their session state and outbound sink.
// It is the sole owner of Session mutations; the room index is driven from
// here so both structures always agree on a connection's current room.
type Registry struct {
	mu       sync.RWMutex
	index    *RoomIndex
	sessions map[domain.ConnectionID]*entry
}

func NewRegistry(index *RoomIndex) *Registry {
	return &Registry{
		index:    index,
		sessions: make(map[domain.ConnectionID]*entry),
	}
}

// Register records a freshly authenticated connection with no room yet.
func (r *Registry) Register(connID domain.ConnectionID, userID, displayName string, sink contract.EventSink) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[connID]; ok {
		return domain.Session{}, errors.ErrDuplicateConnection
	}
	session := domain.Session{
		ConnID:      connID,
		UserID:      userID,
		DisplayName: displayName,
		JoinedAt:    time.Now().UTC(),
	}
	r.sessions[connID] = &entry{session: session, sink: sink}
	return session, nil
}

// SetRoom reassigns the connection's current room and moves it in the room
// index while the registry lock is held, so readers of either structure see
// the old room or the new one, never both and never neither. Returns the
// previous room (empty if this was the first join).
func (r *Registry) SetRoom(connID domain.ConnectionID, roomID domain.RoomID) (domain.RoomID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[connID]
	if !ok {
		return "", errors.ErrUnknownConnection
	}
	prev := e.session.Room
	e.session.Room = roomID
	r.index.MoveTo(connID, prev, roomID)
	return prev, nil
}

// Unregister removes the connection and its room membership. Idempotent:
// a double disconnect returns nil without error.
func (r *Registry) Unregister(connID domain.ConnectionID) *domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[connID]
	if !ok {
		return nil
	}
	delete(r.sessions, connID)
	if e.session.Room != "" {
		r.index.Remove(e.session.Room, connID)
	}
	session := e.session
	return &session
}

// Lookup returns a copy of the session, or nil if the connection is unknown.
func (r *Registry) Lookup(connID domain.ConnectionID) *domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[connID]
	if !ok {
		return nil
	}
	session := e.session
	return &session
}

// SinksForRoom resolves the room's current members to their live sinks.
// It snapshots the index first and resolves sinks under a read lock; a
// connection that disconnected between the two steps is simply skipped.
func (r *Registry) SinksForRoom(roomID domain.RoomID) []contract.EventSink {
	members := r.index.MembersOf(roomID)
	if len(members) == 0 {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]contract.EventSink, 0, len(members))
	for _, connID := range members {
		if e, ok := r.sessions[connID]; ok {
			sinks = append(sinks, e.sink)
		}
	}
	return sinks
}

// RoomMembers recomputes the authoritative member list of a room from the
// session registry. This is the self-healing read behind room-users
// requests; accumulated presence events are never trusted as truth.
func (r *Registry) RoomMembers(roomID domain.RoomID) []domain.Session {
	members := r.index.MembersOf(roomID)
	if len(members) == 0 {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]domain.Session, 0, len(members))
	for _, connID := range members {
		if e, ok := r.sessions[connID]; ok {
			sessions = append(sessions, e.session)
		}
	}
	return sessions
}

// Len reports the number of live sessions. Telemetry only.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
