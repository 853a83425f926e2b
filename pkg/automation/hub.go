package automation

import (
	"sync"

	"github.com/entrhq/forge-automation/pkg/types"
)

// EventHub fans platform events out to filtered subscribers.
type EventHub struct {
	mu     sync.RWMutex
	subs   map[uint64]*hubSubscription
	nextID uint64
}

// NewEventHub creates a hub with no subscribers.
func NewEventHub() *EventHub {
	return &EventHub{
		subs: make(map[uint64]*hubSubscription),
	}
}

type hubSubscription struct {
	id     uint64
	hub    *EventHub
	filter types.EventFilter
	fn     func(types.Event)
	once   sync.Once
}

func (s *hubSubscription) Close() error {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
	})
	return nil
}

// Subscribe registers fn for events matching filter.
func (h *EventHub) Subscribe(filter types.EventFilter, fn func(types.Event)) (types.Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &hubSubscription{
		id:     h.nextID,
		hub:    h,
		filter: filter,
		fn:     fn,
	}
	h.subs[sub.id] = sub
	return sub, nil
}

// Publish delivers e to every matching subscriber. Callbacks run on the
// caller's goroutine, outside the hub lock.
func (h *EventHub) Publish(e types.Event) {
	h.mu.RLock()
	targets := make([]*hubSubscription, 0, len(h.subs))
	for _, sub := range h.subs {
		if sub.filter.Matches(e) {
			targets = append(targets, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		sub.fn(e)
	}
}

// Len returns the number of live subscriptions.
func (h *EventHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
