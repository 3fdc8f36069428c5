package workers

import (
	"context"
	"guild-chat/observability"
	"log/slog"
	"time"
)

// SessionCounter reports how many live sessions exist right now.
// Satisfied by runtime.Registry.
type SessionCounter interface {
	Len() int
}

// Reporter periodically logs a telemetry snapshot of the fan-out core.
type Reporter struct {
	log      *slog.Logger
	stats    *observability.Stats
	sessions SessionCounter
	interval time.Duration
}

func NewReporter(log *slog.Logger, stats *observability.Stats, sessions SessionCounter, interval time.Duration) *Reporter {
	return &Reporter{log: log, stats: stats, sessions: sessions, interval: interval}
}

func (w *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.report()
			return nil
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *Reporter) report() {
	s := w.stats.Read()
	w.log.Info("Core telemetry",
		"live_sessions", w.sessions.Len(),
		"messages_persisted", s.MessagesPersisted,
		"deliveries", s.Deliveries,
		"delivery_failures", s.DeliveryFailures,
		"presence_delivered", s.PresenceDelivered,
		"presence_dropped", s.PresenceDropped,
		"forbidden_requests", s.ForbiddenRequests,
	)
}
