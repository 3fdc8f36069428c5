package services

import (
	"context"
	"guild-chat/contract"
	"guild-chat/domain"
	"guild-chat/errors"
	"guild-chat/repositories"
	"guild-chat/runtime"
)

type IChatService interface {
	Connect(connID domain.ConnectionID, userID, displayName string, sink contract.EventSink) (domain.Session, error)
	Disconnect(connID domain.ConnectionID)
	JoinRoom(connID domain.ConnectionID, roomID domain.RoomID) error
	PostMessage(ctx context.Context, connID domain.ConnectionID, content string) (domain.Message, error)
	History(connID domain.ConnectionID) (domain.RoomID, []domain.Message, error)
	Typing(connID domain.ConnectionID, isTyping bool)
	RoomUsers(roomID domain.RoomID) []domain.Session
}

// ChatService is the seam between the transport layer and the fan-out
// core. It owns the join/leave/post flows; the gateway only translates
// wire envelopes.
type ChatService struct {
	registry     contract.IRegistry
	guard        contract.IAccessGuard
	pipeline     *runtime.Pipeline
	presence     *runtime.Presence
	messages     repositories.IMessageRepository
	historyLimit int
}

func NewChatService(registry contract.IRegistry, guard contract.IAccessGuard,
	pipeline *runtime.Pipeline, presence *runtime.Presence,
	messages repositories.IMessageRepository, historyLimit int) *ChatService {
	return &ChatService{
		registry:     registry,
		guard:        guard,
		pipeline:     pipeline,
		presence:     presence,
		messages:     messages,
		historyLimit: historyLimit,
	}
}

// Connect records an already-authenticated connection with no room yet.
func (s *ChatService) Connect(connID domain.ConnectionID, userID, displayName string, sink contract.EventSink) (domain.Session, error) {
	return s.registry.Register(connID, userID, displayName, sink)
}

// Disconnect unregisters immediately; the leave broadcast is best-effort
// and not guaranteed to complete before the connection handle is reused.
func (s *ChatService) Disconnect(connID domain.ConnectionID) {
	session := s.registry.Unregister(connID)
	if session == nil || session.Room == "" {
		return
	}
	s.presence.AnnounceLeave(session.Room, connID, session.DisplayName)
}

// JoinRoom validates authorization, then reassigns the connection's room.
// Last join wins: the previous room membership is dropped atomically with
// the new assignment.
func (s *ChatService) JoinRoom(connID domain.ConnectionID, roomID domain.RoomID) error {
	session := s.registry.Lookup(connID)
	if session == nil {
		return errors.ErrUnknownConnection
	}

	if err := s.guard.CanJoin(session.UserID, roomID); err != nil {
		return err
	}

	prev, err := s.registry.SetRoom(connID, roomID)
	if err != nil {
		return err
	}

	if prev != "" && prev != roomID {
		s.presence.AnnounceLeave(prev, connID, session.DisplayName)
	}
	s.presence.AnnounceJoin(roomID, connID, session.DisplayName)
	return nil
}

// PostMessage submits to the pipeline against the connection's current room.
func (s *ChatService) PostMessage(ctx context.Context, connID domain.ConnectionID, content string) (domain.Message, error) {
	session := s.registry.Lookup(connID)
	if session == nil {
		return domain.Message{}, errors.ErrUnknownConnection
	}
	if session.Room == "" {
		return domain.Message{}, errors.ErrNotFound
	}
	return s.pipeline.Submit(ctx, session.UserID, session.DisplayName, session.Room, content)
}

// History returns the newest messages of the connection's current room in
// chronological order.
func (s *ChatService) History(connID domain.ConnectionID) (domain.RoomID, []domain.Message, error) {
	session := s.registry.Lookup(connID)
	if session == nil {
		return "", nil, errors.ErrUnknownConnection
	}
	if session.Room == "" {
		return "", nil, errors.ErrNotFound
	}

	messages, err := s.messages.ListMessages(session.Room, s.historyLimit, repositories.NewestFirst)
	if err != nil {
		return session.Room, nil, err
	}
	// Newest-first scan, oldest-first wire order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return session.Room, messages, nil
}

func (s *ChatService) Typing(connID domain.ConnectionID, isTyping bool) {
	session := s.registry.Lookup(connID)
	if session == nil || session.Room == "" {
		return
	}
	s.presence.AnnounceTyping(session.Room, connID, session.DisplayName, isTyping)
}

// RoomUsers recomputes current membership from the registry. This is the
// self-healing read clients use instead of accumulating presence deltas.
func (s *ChatService) RoomUsers(roomID domain.RoomID) []domain.Session {
	return s.registry.RoomMembers(roomID)
}
