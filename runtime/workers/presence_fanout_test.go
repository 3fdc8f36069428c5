package workers

import (
	"context"
	"guild-chat/domain/event"
	"guild-chat/observability"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []event.RoomEvent
}

func (b *recordingBroadcaster) Broadcast(ctx context.Context, e event.RoomEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBroadcaster) Events() []event.RoomEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]event.RoomEvent(nil), b.events...)
}

func TestPresenceFanout_DrainsQueue(t *testing.T) {
	req := require.New(t)
	broadcaster := &recordingBroadcaster{}
	stats := observability.NewStats()
	events := make(chan event.RoomEvent, 4)

	worker := NewPresenceFanout(slog.Default(), broadcaster, stats, events)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	// When two deltas are enqueued
	events <- event.UserJoined{Room: "general", ConnID: "conn-1", DisplayName: "alice"}
	events <- event.UserLeft{Room: "general", ConnID: "conn-1", DisplayName: "alice"}

	req.Eventually(func() bool {
		return len(broadcaster.Events()) == 2
	}, time.Second, 10*time.Millisecond)
	req.Equal(uint64(2), stats.Read().PresenceDelivered)

	// Then the worker stops cleanly on cancellation
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("worker did not stop on context cancellation")
	}
}
