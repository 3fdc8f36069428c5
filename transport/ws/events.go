// Package ws is the websocket transport boundary. It translates tagged
// wire envelopes into core calls and core events back into envelopes.
// Payloads are validated here; nothing dynamic reaches the core.
package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Inbound event names.
const (
	EventJoinRoom    = "join-room"
	EventSendMessage = "send-message"
	EventGetMessages = "get-messages"
	EventTyping      = "typing"
)

// Outbound event names.
const (
	EventNewMessage   = "new-message"
	EventRoomUsers    = "room-users"
	EventUserJoined   = "user-joined"
	EventUserLeft     = "user-left"
	EventUserTyping   = "user-typing"
	EventRoomMessages = "room-messages"
	EventError        = "error"
)

var validate = validator.New()

// Envelope is the wire frame for both directions: a tag plus a per-event
// payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRoomPayload carries the room to subscribe to. Username is accepted
// for wire compatibility but ignored; identity always comes from the JWT.
type JoinRoomPayload struct {
	Username string `json:"username" validate:"omitempty,max=32"`
	Room     string `json:"room" validate:"required,max=128"`
}

type SendMessagePayload struct {
	Message string `json:"message" validate:"required"`
}

type TypingPayload struct {
	IsTyping bool `json:"isTyping"`
}

type MessagePayload struct {
	ID        string    `json:"id"`
	Room      string    `json:"room"`
	Author    string    `json:"author"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type RoomUser struct {
	Username string `json:"username"`
}

type RoomUsersPayload struct {
	Room  string     `json:"room"`
	Users []RoomUser `json:"users"`
}

type PresencePayload struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

type UserTypingPayload struct {
	Room     string `json:"room"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

type RoomMessagesPayload struct {
	Room     string           `json:"room"`
	Messages []MessagePayload `json:"messages"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decodePayload unmarshals and validates an inbound payload in one step so
// handlers never see a half-checked struct.
func decodePayload[T any](data json.RawMessage) (T, error) {
	var payload T
	if len(data) == 0 {
		return payload, fmt.Errorf("missing payload")
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("malformed payload: %w", err)
	}
	if err := validate.Struct(&payload); err != nil {
		return payload, err
	}
	return payload, nil
}

func newEnvelope(eventName string, payload any) Envelope {
	data, err := json.Marshal(payload)
	if err != nil {
		// Payloads are plain structs; marshaling cannot fail at runtime.
		panic(err)
	}
	return Envelope{Event: eventName, Data: data}
}
