package ws

import (
	"context"
	"fmt"
	"guild-chat/domain/event"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Sink is one connection's outbound half: a buffered envelope queue
// drained by a single write pump, so deliveries for one connection are
// FIFO. Once closed, Consume fails fast and the broadcaster counts the
// failure; nothing retries.
type Sink struct {
	log  *slog.Logger
	out  chan Envelope
	done chan struct{}
	once sync.Once
}

func NewSink(log *slog.Logger, bufferSize int) *Sink {
	return &Sink{
		log:  log,
		out:  make(chan Envelope, bufferSize),
		done: make(chan struct{}),
	}
}

// Consume translates a core event into its wire envelope and enqueues it.
// Blocks at most until the context deadline; a saturated or closed sink
// returns an error and loses the delivery.
func (s *Sink) Consume(ctx context.Context, e event.RoomEvent) error {
	env, ok := toEnvelope(e)
	if !ok {
		return nil
	}
	return s.Push(ctx, env)
}

// Push enqueues an envelope directly. Used for request/reply envelopes
// (room-users, room-messages, error) that bypass the fan-out core.
func (s *Sink) Push(ctx context.Context, env Envelope) error {
	select {
	case <-s.done:
		return fmt.Errorf("sink closed")
	case <-ctx.Done():
		return ctx.Err()
	case s.out <- env:
		return nil
	}
}

// Close stops the write pump. Idempotent; safe from any goroutine.
func (s *Sink) Close() {
	s.once.Do(func() { close(s.done) })
}

// WritePump writes queued envelopes to the websocket connection and keeps
// it alive with periodic pings. It is the only goroutine writing to conn.
// Closes the sink on exit so a producer blocked in Push is released and
// the read loop can run its disconnect cleanup.
func (s *Sink) WritePump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
		_ = conn.Close()
	}()

	for {
		select {
		case <-s.done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case env := <-s.out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(env); err != nil {
				s.log.Debug("Websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func toEnvelope(e event.RoomEvent) (Envelope, bool) {
	switch evt := e.(type) {
	case event.MessageDelivered:
		return newEnvelope(EventNewMessage, MessagePayload{
			ID:        evt.ID.String(),
			Room:      string(evt.Room),
			Author:    evt.AuthorName,
			Message:   evt.Content,
			Timestamp: evt.At,
		}), true
	case event.UserJoined:
		return newEnvelope(EventUserJoined, PresencePayload{
			Room:     string(evt.Room),
			Username: evt.DisplayName,
		}), true
	case event.UserLeft:
		return newEnvelope(EventUserLeft, PresencePayload{
			Room:     string(evt.Room),
			Username: evt.DisplayName,
		}), true
	case event.UserTyping:
		return newEnvelope(EventUserTyping, UserTypingPayload{
			Room:     string(evt.Room),
			Username: evt.DisplayName,
			IsTyping: evt.IsTyping,
		}), true
	default:
		return Envelope{}, false
	}
}
