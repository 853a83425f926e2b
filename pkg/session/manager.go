// Package session tracks the long-lived monitoring sessions running inside a
// worker process.
//
// The Manager owns every Session from creation to disposal. A session is
// removed and disposed through a single path whether it is stopped
// explicitly, swept for age, or torn down at shutdown, so no session is
// disposed twice and no removed session stays discoverable.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/entrhq/forge-automation/pkg/logging"
	"github.com/entrhq/forge-automation/pkg/types"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("session")
	if err != nil {
		debugLog.Warnf("Failed to initialize session logger, using stderr fallback: %v", err)
	}
}

var (
	// ErrDuplicateSession is returned when an id already denotes an active session.
	ErrDuplicateSession = errors.New("session already exists")
	// ErrTooManySessions is returned when the session limit is reached.
	ErrTooManySessions = errors.New("maximum number of sessions reached")
)

// Manager is a concurrency-safe table of sessions keyed by id.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	now         func() time.Time
	maxEvents   int
	maxSessions int
	eventRate   rate.Limit
	eventBurst  int
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the time source used for creation times and expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithMaxEvents sets how many events each session retains.
func WithMaxEvents(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxEvents = n
		}
	}
}

// WithMaxSessions caps the number of concurrent sessions. Zero means no cap.
func WithMaxSessions(n int) Option {
	return func(m *Manager) {
		if n >= 0 {
			m.maxSessions = n
		}
	}
}

// WithEventRate limits how fast each session records events. A rate of zero
// or less disables limiting.
func WithEventRate(perSecond float64, burst int) Option {
	return func(m *Manager) {
		if perSecond <= 0 {
			m.eventRate = 0
			return
		}
		if burst <= 0 {
			burst = 1
		}
		m.eventRate = rate.Limit(perSecond)
		m.eventBurst = burst
	}
}

// NewManager creates an empty session table.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:  make(map[string]*Session),
		now:       time.Now,
		maxEvents: DefaultMaxEvents,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewID returns a short random session identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// NewSessionID returns an identifier not currently in use. CreateSession
// still guards against a concurrent creator taking it first.
func (m *Manager) NewSessionID() string {
	for {
		id := NewID()
		m.mu.RLock()
		_, exists := m.sessions[id]
		m.mu.RUnlock()
		if !exists {
			return id
		}
	}
}

// CreateSession builds a session recording events from source that match
// filter, and inserts it under id. source may be nil for a session that is
// fed through Session.Record directly.
//
// If id is already active, or another creator inserts the same id while this
// session is being built, the new session is disposed and
// ErrDuplicateSession is returned.
func (m *Manager) CreateSession(id string, filter types.EventFilter, source types.EventSource) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("session id is required")
	}

	m.mu.RLock()
	_, exists := m.sessions[id]
	count := len(m.sessions)
	m.mu.RUnlock()

	if exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSession, id)
	}
	if m.maxSessions > 0 && count >= m.maxSessions {
		return nil, fmt.Errorf("%w (%d)", ErrTooManySessions, m.maxSessions)
	}

	var limiter *rate.Limiter
	if m.eventRate > 0 {
		limiter = rate.NewLimiter(m.eventRate, m.eventBurst)
	}
	s := newSession(id, m.now(), filter, m.maxEvents, limiter)

	if source != nil {
		sub, err := source.Subscribe(filter, s.Record)
		if err != nil {
			return nil, fmt.Errorf("failed to subscribe to events: %w", err)
		}
		s.sub = sub
	}

	m.mu.Lock()
	if _, exists := m.sessions[id]; exists {
		m.mu.Unlock()
		m.dispose(s)
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSession, id)
	}
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		m.mu.Unlock()
		m.dispose(s)
		return nil, fmt.Errorf("%w (%d)", ErrTooManySessions, m.maxSessions)
	}
	m.sessions[id] = s
	m.mu.Unlock()

	debugLog.Infof("Created session %s (types=%v)", id, filter.Types)
	return s, nil
}

// GetSession returns the active session with id, or nil.
func (m *Manager) GetSession(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// RemoveSession removes and disposes the session with id. It reports whether
// a session was present; concurrent calls for one id yield exactly one true.
func (m *Manager) RemoveSession(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	m.dispose(s)
	debugLog.Infof("Removed session %s", id)
	return true
}

// CleanupExpired removes every session whose age is at least maxAge and
// returns how many were removed. A maxAge of zero or less removes nothing.
func (m *Manager) CleanupExpired(maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}
	now := m.now()

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if now.Sub(s.createdAt) >= maxAge {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.dispose(s)
	}
	if len(expired) > 0 {
		debugLog.Infof("Expired %d session(s) older than %s", len(expired), maxAge)
	}
	return len(expired)
}

// DisposeAll disposes every session and clears the table, even when some
// disposals fail. The failures are returned joined.
func (m *Manager) DisposeAll() error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var errs []error
	for id, s := range sessions {
		if err := m.dispose(s); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", id, err))
		}
	}
	if len(sessions) > 0 {
		debugLog.Infof("Disposed %d session(s) at shutdown", len(sessions))
	}
	return errors.Join(errs...)
}

// dispose is the only place sessions are disposed.
func (m *Manager) dispose(s *Session) error {
	err := s.Dispose()
	if err != nil {
		debugLog.Warnf("Failed to dispose session %s: %v", s.id, err)
	}
	return err
}

// List returns a snapshot of every session, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].createdAt.Equal(sessions[j].createdAt) {
			return sessions[i].id < sessions[j].id
		}
		return sessions[i].createdAt.Before(sessions[j].createdAt)
	})

	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	return infos
}

// Count returns the number of sessions in the table.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// RunSweeper calls CleanupExpired every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 || maxAge <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupExpired(maxAge)
		}
	}
}
