package monitoring

import (
	"sync"
	"time"

	"github.com/gardenhub/server/hub/internal/actuation"
	"github.com/gardenhub/server/hub/internal/events"
	nuts "github.com/vaudience/go-nuts"
)

// Subscriber is the consuming side of the event bus.
type Subscriber interface {
	SubscribeAll(handler func(events.Event))
}

// ActuationStats reports the push dispatcher counters.
type ActuationStats interface {
	Stats() actuation.Stats
}

// Service counts domain events for the metrics endpoint.
type Service struct {
	mu        sync.Mutex
	counts    map[string]int64
	last      map[string]time.Time
	started   time.Time
	actuation ActuationStats
}

// Metrics is the payload of GET /metrics.
type Metrics struct {
	Uptime    string               `json:"uptime"`
	Events    map[string]int64     `json:"events"`
	LastEvent map[string]time.Time `json:"last_event"`
	Actuation *actuation.Stats     `json:"actuation,omitempty"`
}

// NewService creates a new monitoring service
func NewService(stats ActuationStats) *Service {
	s := &Service{
		counts:    make(map[string]int64, len(events.Names)),
		last:      make(map[string]time.Time, len(events.Names)),
		started:   time.Now(),
		actuation: stats,
	}
	for _, name := range events.Names {
		s.counts[name] = 0
	}
	return s
}

// Attach counts every event published on bus.
func (s *Service) Attach(bus Subscriber) {
	bus.SubscribeAll(s.RecordEvent)
	nuts.L.Infof("[Monitoring] Counting %d event types", len(events.Names))
}

// RecordEvent records a monitored event
func (s *Service) RecordEvent(evt events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[evt.Name]++
	s.last[evt.Name] = evt.At
}

// Snapshot returns a copy of the counters.
func (s *Service) Snapshot() Metrics {
	s.mu.Lock()
	m := Metrics{
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Events:    make(map[string]int64, len(s.counts)),
		LastEvent: make(map[string]time.Time, len(s.last)),
	}
	for k, v := range s.counts {
		m.Events[k] = v
	}
	for k, v := range s.last {
		m.LastEvent[k] = v
	}
	s.mu.Unlock()

	if s.actuation != nil {
		stats := s.actuation.Stats()
		m.Actuation = &stats
	}
	return m
}
