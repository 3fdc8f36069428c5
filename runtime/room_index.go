// Package runtime owns the shared mutable state of the fan-out core:
// the session registry and the room index. It orchestrates delivery
// without containing business logic or domain rules.
package runtime

import (
	"guild-chat/domain"
	"hash/fnv"
	"sync"
)

const indexShards = 16

type Set map[domain.ConnectionID]struct{}

type indexShard struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]Set
}

// RoomIndex maps a room to the set of live connections currently subscribed
// to it. Rooms are spread over a fixed number of lock shards so contention
// on one busy room does not block unrelated rooms.
//
// Invariant: a connection appears in at most one room's set at any
// observable instant. MoveTo holds both affected shard locks for the whole
// move, so no reader sees the connection in zero or two rooms.
type RoomIndex struct {
	shards [indexShards]*indexShard
}

func NewRoomIndex() *RoomIndex {
	idx := &RoomIndex{}
	for i := range idx.shards {
		idx.shards[i] = &indexShard{rooms: make(map[domain.RoomID]Set)}
	}
	return idx
}

func (idx *RoomIndex) shardFor(roomID domain.RoomID) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(roomID))
	return int(h.Sum32() % indexShards)
}

// MembersOf returns a point-in-time snapshot of the room's member set.
// The snapshot may be stale by the time the caller acts on it, which is
// acceptable since delivery is best-effort.
func (idx *RoomIndex) MembersOf(roomID domain.RoomID) []domain.ConnectionID {
	shard := idx.shards[idx.shardFor(roomID)]
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	members, ok := shard.rooms[roomID]
	if !ok {
		return nil
	}
	snapshot := make([]domain.ConnectionID, 0, len(members))
	for connID := range members {
		snapshot = append(snapshot, connID)
	}
	return snapshot
}

func (idx *RoomIndex) Add(roomID domain.RoomID, connID domain.ConnectionID) {
	shard := idx.shards[idx.shardFor(roomID)]
	shard.mu.Lock()
	defer shard.mu.Unlock()
	shard.add(roomID, connID)
}

// Remove drops the connection from the room. The room entry itself is
// pruned as soon as it is empty to bound memory over time.
func (idx *RoomIndex) Remove(roomID domain.RoomID, connID domain.ConnectionID) {
	shard := idx.shards[idx.shardFor(roomID)]
	shard.mu.Lock()
	defer shard.mu.Unlock()
	shard.remove(roomID, connID)
}

// MoveTo reassigns the connection from one room to another in a single
// observable update. An empty "from" means the connection had no room yet.
// Both shard locks are taken in deterministic order to avoid deadlocks
// between concurrent moves in opposite directions.
func (idx *RoomIndex) MoveTo(connID domain.ConnectionID, from, to domain.RoomID) {
	if from == "" {
		idx.Add(to, connID)
		return
	}
	if from == to {
		return
	}

	fromN, toN := idx.shardFor(from), idx.shardFor(to)
	if fromN == toN {
		shard := idx.shards[fromN]
		shard.mu.Lock()
		defer shard.mu.Unlock()
		shard.remove(from, connID)
		shard.add(to, connID)
		return
	}

	first, second := idx.shards[fromN], idx.shards[toN]
	if toN < fromN {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	idx.shards[fromN].remove(from, connID)
	idx.shards[toN].add(to, connID)
}

// add and remove expect the shard lock to be held.
func (s *indexShard) add(roomID domain.RoomID, connID domain.ConnectionID) {
	if _, ok := s.rooms[roomID]; !ok {
		s.rooms[roomID] = make(Set)
	}
	s.rooms[roomID][connID] = struct{}{}
}

func (s *indexShard) remove(roomID domain.RoomID, connID domain.ConnectionID) {
	members, ok := s.rooms[roomID]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(s.rooms, roomID)
	}
}

// Rooms returns the identifiers of all non-empty rooms. Used by telemetry;
// not part of the hot path.
func (idx *RoomIndex) Rooms() []domain.RoomID {
	var res []domain.RoomID
	for _, shard := range idx.shards {
		shard.mu.RLock()
		for roomID := range shard.rooms {
			res = append(res, roomID)
		}
		shard.mu.RUnlock()
	}
	return res
}
