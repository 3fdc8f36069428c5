package ws

import (
	"context"
	"encoding/json"
	"guild-chat/domain"
	"guild-chat/domain/event"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	req := require.New(t)

	// Given a well-formed join payload
	payload, err := decodePayload[JoinRoomPayload](json.RawMessage(`{"username":"alice","room":"general"}`))
	req.NoError(err)
	req.Equal("alice", payload.Username)
	req.Equal("general", payload.Room)

	// Username is optional; only the room is mandatory
	payload, err = decodePayload[JoinRoomPayload](json.RawMessage(`{"room":"general"}`))
	req.NoError(err)
	req.Empty(payload.Username)

	// Missing payload, malformed JSON, and failed validation all reject
	_, err = decodePayload[JoinRoomPayload](nil)
	req.Error(err)
	_, err = decodePayload[JoinRoomPayload](json.RawMessage(`{"username":`))
	req.Error(err)
	_, err = decodePayload[JoinRoomPayload](json.RawMessage(`{"username":"alice"}`))
	req.Error(err)
	_, err = decodePayload[SendMessagePayload](json.RawMessage(`{"message":""}`))
	req.Error(err)
}

func TestToEnvelope(t *testing.T) {
	req := require.New(t)
	room := domain.RoomID("general")
	at := time.Now().UTC()
	id := uuid.New()

	// Given a delivered message event
	env, ok := toEnvelope(event.MessageDelivered{
		ID:         id,
		Room:       room,
		AuthorID:   "user-a",
		AuthorName: "alice",
		Content:    "hi",
		At:         at,
	})
	req.True(ok)
	req.Equal(EventNewMessage, env.Event)

	var msg MessagePayload
	req.NoError(json.Unmarshal(env.Data, &msg))
	req.Equal(id.String(), msg.ID)
	req.Equal("alice", msg.Author)
	req.Equal("hi", msg.Message)

	// Presence deltas map onto their own event names
	env, ok = toEnvelope(event.UserJoined{Room: room, DisplayName: "bob"})
	req.True(ok)
	req.Equal(EventUserJoined, env.Event)

	env, ok = toEnvelope(event.UserLeft{Room: room, DisplayName: "bob"})
	req.True(ok)
	req.Equal(EventUserLeft, env.Event)

	env, ok = toEnvelope(event.UserTyping{Room: room, DisplayName: "bob", IsTyping: true})
	req.True(ok)
	req.Equal(EventUserTyping, env.Event)

	var typing UserTypingPayload
	req.NoError(json.Unmarshal(env.Data, &typing))
	req.True(typing.IsTyping)
}

func TestSinkPushAfterClose(t *testing.T) {
	req := require.New(t)
	sink := NewSink(nil, 1)

	// One slot available
	req.NoError(sink.Push(context.Background(), newEnvelope(EventError, ErrorPayload{Code: "internal"})))

	// A saturated sink blocks until the context gives up
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	req.Error(sink.Push(ctx, newEnvelope(EventError, ErrorPayload{Code: "internal"})))

	// And a closed sink fails fast, even when called twice
	sink.Close()
	sink.Close()
	req.Error(sink.Consume(context.Background(), event.UserJoined{Room: "general", DisplayName: "bob"}))
}

// A producer blocked on a saturated sink must be released when the write
// pump dies, otherwise the read loop never reaches its disconnect cleanup
// and the session leaks.
func TestSinkCloseReleasesBlockedPush(t *testing.T) {
	req := require.New(t)
	sink := NewSink(nil, 1)
	req.NoError(sink.Push(context.Background(), newEnvelope(EventError, ErrorPayload{Code: "internal"})))

	// Given a push stuck on the full buffer with no deadline
	blocked := make(chan error, 1)
	go func() {
		blocked <- sink.Push(context.Background(), newEnvelope(EventError, ErrorPayload{Code: "internal"}))
	}()

	// When the sink closes, as the write pump does on exit
	time.Sleep(20 * time.Millisecond)
	sink.Close()

	// Then the producer unblocks with an error instead of hanging forever
	select {
	case err := <-blocked:
		req.Error(err)
	case <-time.After(time.Second):
		t.Fatal("push still blocked after sink close")
	}
}
