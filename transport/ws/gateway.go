package ws

import (
	"context"
	stderrors "errors"
	"fmt"
	"guild-chat/auth"
	"guild-chat/domain"
	"guild-chat/errors"
	"guild-chat/services"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxFrameSize = 4096

// Gateway upgrades authenticated websocket connections and runs their read
// loop. Each connection gets a fresh ConnectionID and a dedicated Sink; the
// identity comes from the JWT, never from client payloads.
type Gateway struct {
	log        *slog.Logger
	chat       services.IChatService
	bufferSize int
}

func NewGateway(log *slog.Logger, chat services.IChatService, bufferSize int) *Gateway {
	return &Gateway{log: log, chat: chat, bufferSize: bufferSize}
}

// Upgrade gates the route to real websocket upgrade requests.
func (g *Gateway) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler returns the fiber websocket handler serving one connection until
// disconnect.
func (g *Gateway) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		g.serve(conn)
	})
}

func (g *Gateway) serve(conn *websocket.Conn) {
	claims, err := auth.ValidateToken(conn.Query("token"))
	if err != nil {
		g.log.Warn("Websocket auth failed", "error", err)
		_ = conn.WriteJSON(newEnvelope(EventError, ErrorPayload{
			Code:    "unauthorized",
			Message: "invalid or expired token",
		}))
		_ = conn.Close()
		return
	}

	connID := domain.ConnectionID(uuid.NewString())
	sink := NewSink(g.log, g.bufferSize)

	if _, err := g.chat.Connect(connID, claims.UserID, claims.Username, sink); err != nil {
		// Registry misuse: log and drop this connection, never crash the
		// service over one bad connection.
		g.log.Error("Connection registration failed", "conn_id", connID, "error", err)
		_ = conn.Close()
		return
	}

	go sink.WritePump(conn)

	defer func() {
		g.chat.Disconnect(connID)
		sink.Close()
		g.log.Info(fmt.Sprintf("Connection %s closed", connID))
	}()

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				g.log.Warn("Websocket read error", "conn_id", connID, "error", err)
			}
			return
		}
		g.handle(connID, sink, env)
	}
}

// handle dispatches one inbound envelope. Invalid payloads and rejected
// requests answer with an error envelope; the connection stays up.
// The context bounds every push so a saturated sink can only stall the
// read loop for writeWait, not forever.
func (g *Gateway) handle(connID domain.ConnectionID, sink *Sink, env Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()

	switch env.Event {
	case EventJoinRoom:
		payload, err := decodePayload[JoinRoomPayload](env.Data)
		if err != nil {
			g.pushError(ctx, sink, "invalid-payload", err)
			return
		}
		roomID := domain.RoomID(payload.Room)
		if err := g.chat.JoinRoom(connID, roomID); err != nil {
			g.pushError(ctx, sink, codeFor(err), err)
			return
		}
		// The joiner gets the authoritative member list right away;
		// everyone else learns about the join via the presence delta.
		_ = sink.Push(ctx, newEnvelope(EventRoomUsers, g.roomUsers(roomID)))

	case EventSendMessage:
		payload, err := decodePayload[SendMessagePayload](env.Data)
		if err != nil {
			g.pushError(ctx, sink, "invalid-payload", err)
			return
		}
		// The sender receives its own message through the fan-out like any
		// other member: single source of truth for IDs and timestamps.
		if _, err := g.chat.PostMessage(ctx, connID, payload.Message); err != nil {
			g.pushError(ctx, sink, codeFor(err), err)
		}

	case EventGetMessages:
		roomID, messages, err := g.chat.History(connID)
		if err != nil {
			g.pushError(ctx, sink, codeFor(err), err)
			return
		}
		out := make([]MessagePayload, 0, len(messages))
		for _, msg := range messages {
			out = append(out, MessagePayload{
				ID:        msg.ID.String(),
				Room:      string(msg.Room),
				Author:    msg.AuthorName,
				Message:   msg.Content,
				Timestamp: msg.CreatedAt,
			})
		}
		_ = sink.Push(ctx, newEnvelope(EventRoomMessages, RoomMessagesPayload{
			Room:     string(roomID),
			Messages: out,
		}))

	case EventTyping:
		payload, err := decodePayload[TypingPayload](env.Data)
		if err != nil {
			g.pushError(ctx, sink, "invalid-payload", err)
			return
		}
		g.chat.Typing(connID, payload.IsTyping)

	default:
		g.pushError(ctx, sink, "unknown-event", fmt.Errorf("unknown event %q", env.Event))
	}
}

func (g *Gateway) roomUsers(roomID domain.RoomID) RoomUsersPayload {
	sessions := g.chat.RoomUsers(roomID)
	users := make([]RoomUser, 0, len(sessions))
	for _, s := range sessions {
		users = append(users, RoomUser{Username: s.DisplayName})
	}
	return RoomUsersPayload{Room: string(roomID), Users: users}
}

func (g *Gateway) pushError(ctx context.Context, sink *Sink, code string, err error) {
	g.log.Debug(fmt.Sprintf("Rejected request: %s", code), "error", err)
	_ = sink.Push(ctx, newEnvelope(EventError, ErrorPayload{
		Code:    code,
		Message: err.Error(),
	}))
}

func codeFor(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrInvalidContent):
		return "invalid-content"
	case stderrors.Is(err, errors.ErrForbidden):
		return "forbidden"
	case stderrors.Is(err, errors.ErrNotFound):
		return "not-found"
	case stderrors.Is(err, errors.ErrStorageUnavailable):
		return "storage-unavailable"
	case stderrors.Is(err, errors.ErrUnknownConnection):
		return "unknown-connection"
	default:
		return "internal"
	}
}
