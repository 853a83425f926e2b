package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/entrhq/forge-automation/pkg/types"
)

func valueEvent(v int) types.Event {
	return types.Event{Type: types.EventTypeValueChanged, Value: fmt.Sprint(v)}
}

func values(events []types.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Value)
	}
	return out
}

func TestSessionRingBuffer(t *testing.T) {
	s := newSession("s", time.Now(), types.EventFilter{}, 3, nil)

	for i := 1; i <= 5; i++ {
		s.Record(valueEvent(i))
	}

	assert.Equal(t, []string{"3", "4", "5"}, values(s.Events(0)))
	assert.Equal(t, []string{"4", "5"}, values(s.Events(2)))
	assert.Equal(t, []string{"3", "4", "5"}, values(s.Events(10)))

	stats := s.Stats()
	assert.Equal(t, 3, stats.Retained)
	assert.Equal(t, uint64(5), stats.TotalCaptured)
	assert.Equal(t, uint64(2), stats.Dropped)
}

func TestSessionEventsNotConsumed(t *testing.T) {
	s := newSession("s", time.Now(), types.EventFilter{}, 10, nil)
	s.Record(valueEvent(1))

	require.Len(t, s.Events(10), 1)
	require.Len(t, s.Events(10), 1)
}

func TestSessionFilterAndDispose(t *testing.T) {
	s := newSession("s", time.Now(), types.EventFilter{Types: []types.EventType{types.EventTypeInvoke}}, 10, nil)

	s.Record(valueEvent(1))
	s.Record(types.Event{Type: types.EventTypeInvoke})
	assert.Len(t, s.Events(0), 1)

	require.NoError(t, s.Dispose())
	require.NoError(t, s.Dispose())
	assert.False(t, s.IsActive())

	s.Record(types.Event{Type: types.EventTypeInvoke})
	assert.Len(t, s.Events(0), 1)
}

func TestSessionRateLimit(t *testing.T) {
	s := newSession("s", time.Now(), types.EventFilter{}, 10, rate.NewLimiter(rate.Every(time.Hour), 2))

	for i := 0; i < 5; i++ {
		s.Record(valueEvent(i))
	}

	stats := s.Stats()
	assert.Equal(t, 2, stats.Retained)
	assert.Equal(t, uint64(3), stats.RateLimited)
}

func TestSessionDefaultCapacity(t *testing.T) {
	s := newSession("s", time.Now(), types.EventFilter{}, 0, nil)
	assert.Len(t, s.ring, DefaultMaxEvents)
}
