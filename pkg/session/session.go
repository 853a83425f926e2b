package session

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/entrhq/forge-automation/pkg/types"
)

// DefaultMaxEvents bounds the events kept per session.
const DefaultMaxEvents = 1000

// Session is a long-lived event capture started by a monitoring operation.
// Captured events are kept in a bounded ring; once full, the oldest event is
// evicted for each new one.
type Session struct {
	id        string
	createdAt time.Time
	filter    types.EventFilter

	mu      sync.Mutex
	ring    []types.Event
	start   int
	size    int
	total   uint64
	dropped uint64
	limited uint64
	limiter *rate.Limiter

	active      atomic.Bool
	sub         types.Subscription
	disposeOnce sync.Once
	disposeErr  error
}

func newSession(id string, createdAt time.Time, filter types.EventFilter, maxEvents int, limiter *rate.Limiter) *Session {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	s := &Session{
		id:        id,
		createdAt: createdAt,
		filter:    filter,
		ring:      make([]types.Event, maxEvents),
		limiter:   limiter,
	}
	s.active.Store(true)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Filter returns the event filter the session records with.
func (s *Session) Filter() types.EventFilter { return s.filter }

// IsActive reports whether the session is still capturing.
func (s *Session) IsActive() bool { return s.active.Load() }

// Record appends e if the session is active and e passes the filter.
func (s *Session) Record(e types.Event) {
	if !s.active.Load() || !s.filter.Matches(e) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.limiter != nil && !s.limiter.Allow() {
		s.limited++
		return
	}

	capacity := len(s.ring)
	if s.size < capacity {
		s.ring[(s.start+s.size)%capacity] = e
		s.size++
	} else {
		s.ring[s.start] = e
		s.start = (s.start + 1) % capacity
		s.dropped++
	}
	s.total++
}

// Events returns up to max of the most recent events, oldest first. A max of
// zero or less returns every retained event. Reading does not consume.
func (s *Session) Events(max int) []types.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.size
	if max > 0 && max < n {
		n = max
	}

	out := make([]types.Event, 0, n)
	capacity := len(s.ring)
	for i := s.size - n; i < s.size; i++ {
		out = append(out, s.ring[(s.start+i)%capacity])
	}
	return out
}

// Stats summarizes what the session has captured.
type Stats struct {
	Retained      int    `json:"retained"`
	TotalCaptured uint64 `json:"totalCaptured"`
	Dropped       uint64 `json:"dropped"`
	RateLimited   uint64 `json:"rateLimited"`
}

// Stats returns the session's capture counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Retained:      s.size,
		TotalCaptured: s.total,
		Dropped:       s.dropped,
		RateLimited:   s.limited,
	}
}

// Dispose stops capture and releases the platform subscription. Only the
// first call has any effect; later calls return the first call's error.
func (s *Session) Dispose() error {
	s.disposeOnce.Do(func() {
		s.active.Store(false)
		if s.sub != nil {
			s.disposeErr = s.sub.Close()
		}
	})
	return s.disposeErr
}

// Info is a point-in-time description of a session.
type Info struct {
	ID         string            `json:"sessionId"`
	CreatedAt  time.Time         `json:"createdAt"`
	EventTypes []types.EventType `json:"eventTypes"`
	EventCount int               `json:"eventCount"`
	IsActive   bool              `json:"isActive"`
}

// Info returns a snapshot of the session.
func (s *Session) Info() Info {
	eventTypes := s.filter.Types
	if eventTypes == nil {
		eventTypes = []types.EventType{}
	}
	return Info{
		ID:         s.id,
		CreatedAt:  s.createdAt,
		EventTypes: eventTypes,
		EventCount: s.Stats().Retained,
		IsActive:   s.IsActive(),
	}
}
