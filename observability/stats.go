// Package observability aggregates real-time counters for the fan-out core.
// Counters are advisory; nothing in the core branches on them.
package observability

import "sync/atomic"

// Stats collects atomic counters incremented on the hot path and read by
// the telemetry reporter. A partial dispatch is only visible here and in
// logs, never in a caller-facing return value.
type Stats struct {
	MessagesPersisted uint64
	Deliveries        uint64
	DeliveryFailures  uint64
	PresenceDelivered uint64
	PresenceDropped   uint64
	ForbiddenRequests uint64
}

func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) IncrMessagesPersisted() { atomic.AddUint64(&s.MessagesPersisted, 1) }
func (s *Stats) IncrDeliveries()        { atomic.AddUint64(&s.Deliveries, 1) }
func (s *Stats) IncrDeliveryFailures()  { atomic.AddUint64(&s.DeliveryFailures, 1) }
func (s *Stats) IncrPresenceDelivered() { atomic.AddUint64(&s.PresenceDelivered, 1) }
func (s *Stats) IncrPresenceDropped()   { atomic.AddUint64(&s.PresenceDropped, 1) }
func (s *Stats) IncrForbiddenRequests() { atomic.AddUint64(&s.ForbiddenRequests, 1) }

// Snapshot is a consistent-enough copy for logging. Individual counters are
// read atomically; cross-counter consistency is not needed for telemetry.
type Snapshot struct {
	MessagesPersisted uint64 `json:"messages_persisted"`
	Deliveries        uint64 `json:"deliveries"`
	DeliveryFailures  uint64 `json:"delivery_failures"`
	PresenceDelivered uint64 `json:"presence_delivered"`
	PresenceDropped   uint64 `json:"presence_dropped"`
	ForbiddenRequests uint64 `json:"forbidden_requests"`
}

func (s *Stats) Read() Snapshot {
	return Snapshot{
		MessagesPersisted: atomic.LoadUint64(&s.MessagesPersisted),
		Deliveries:        atomic.LoadUint64(&s.Deliveries),
		DeliveryFailures:  atomic.LoadUint64(&s.DeliveryFailures),
		PresenceDelivered: atomic.LoadUint64(&s.PresenceDelivered),
		PresenceDropped:   atomic.LoadUint64(&s.PresenceDropped),
		ForbiddenRequests: atomic.LoadUint64(&s.ForbiddenRequests),
	}
}
