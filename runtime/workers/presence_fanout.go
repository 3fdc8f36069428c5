package workers

import (
	"context"
	"guild-chat/domain/event"
	"guild-chat/observability"
	"log/slog"
)

// RoomBroadcaster is the delivery half the worker drives. Satisfied by
// runtime.Broadcaster.
type RoomBroadcaster interface {
	Broadcast(ctx context.Context, e event.RoomEvent)
}

// PresenceFanout drains the presence queue and broadcasts each delta to the
// room's current membership snapshot. Best-effort by construction: no
// retries, no delivery guarantee. Not a message broker.
type PresenceFanout struct {
	log         *slog.Logger
	broadcaster RoomBroadcaster
	stats       *observability.Stats
	events      <-chan event.RoomEvent
}

func NewPresenceFanout(log *slog.Logger, broadcaster RoomBroadcaster,
	stats *observability.Stats, events <-chan event.RoomEvent) *PresenceFanout {
	return &PresenceFanout{log: log, broadcaster: broadcaster, stats: stats, events: events}
}

func (w *PresenceFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping presence fan-out")
			return nil
		case evt, ok := <-w.events:
			if !ok {
				return nil
			}
			w.broadcaster.Broadcast(ctx, evt)
			w.stats.IncrPresenceDelivered()
		}
	}
}
