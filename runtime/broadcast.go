package runtime

import (
	"context"
	"fmt"
	"guild-chat/domain/event"
	"guild-chat/observability"
	"log/slog"
	"time"
)

// Broadcaster delivers one event to every live sink of its room. Delivery
// iterates a point-in-time snapshot of the membership; no registry or index
// lock is held across the loop, so a connection may disconnect mid-fan-out.
// Such attempts fail silently: chat delivery is at-most-once per
// connection, persistence is at-least-once.
type Broadcaster struct {
	log         *slog.Logger
	registry    *Registry
	stats       *observability.Stats
	sinkTimeout time.Duration
}

func NewBroadcaster(log *slog.Logger, registry *Registry, stats *observability.Stats, sinkTimeout time.Duration) *Broadcaster {
	return &Broadcaster{log: log, registry: registry, stats: stats, sinkTimeout: sinkTimeout}
}

// Broadcast pushes the event to each sink in turn with a per-sink timeout.
// Sequential delivery preserves per-connection ordering; a slow or dead
// sink costs at most sinkTimeout and is counted, never retried.
func (b *Broadcaster) Broadcast(ctx context.Context, e event.RoomEvent) {
	sinks := b.registry.SinksForRoom(e.RoomID())

	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, b.sinkTimeout)
		err := sink.Consume(sinkCtx, e)
		cancel()

		if err != nil {
			b.stats.IncrDeliveryFailures()
			b.log.Warn(fmt.Sprintf("Delivery failed for room %s", e.RoomID()),
				"error", err)
			continue
		}
		b.stats.IncrDeliveries()
	}
}
