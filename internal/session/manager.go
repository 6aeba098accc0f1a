// internal/session/manager.go

// Package session keeps the process-wide registry of signed-in sessions
// and tells interested parties when one starts or ends.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	Started EventType = "started"
	Ended   EventType = "ended"
)

type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	StartedAt time.Time `json:"started_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Event struct {
	Type    EventType
	Session Session
}

// Subscription delivers session events until Cancel is called.
type Subscription struct {
	C <-chan Event

	ch   chan Event
	once sync.Once
	m    *Manager
}

func (s *Subscription) Cancel() {
	s.once.Do(func() { s.m.unsubscribe(s) })
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]Session
	subs     map[*Subscription]struct{}
	ttl      time.Duration
	now      func() time.Time
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]Session),
		subs:     make(map[*Subscription]struct{}),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Start registers a new session for userID.
func (m *Manager) Start(userID uuid.UUID) Session {
	now := m.now()
	s := Session{
		ID:        uuid.New(),
		UserID:    userID,
		StartedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.emit(Event{Type: Started, Session: s})
	return s
}

// End removes a session. It reports false if the session was unknown.
func (m *Manager) End(id uuid.UUID) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		m.emit(Event{Type: Ended, Session: s})
	}
	return ok
}

// Active returns the session if it exists and has not expired.
func (m *Manager) Active(id uuid.UUID) (Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || !m.now().Before(s.ExpiresAt) {
		return Session{}, false
	}
	return s, true
}

// Count returns the number of registered sessions, expired ones included
// until the next Sweep.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep ends every expired session and returns how many it removed.
func (m *Manager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	var expired []Session
	for id, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.emit(Event{Type: Ended, Session: s})
	}
	return len(expired)
}

// Run sweeps expired sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) Subscribe() *Subscription {
	ch := make(chan Event, 16)
	sub := &Subscription{C: ch, ch: ch, m: m}

	m.mu.Lock()
	m.subs[sub] = struct{}{}
	m.mu.Unlock()
	return sub
}

func (m *Manager) unsubscribe(sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[sub]; ok {
		delete(m.subs, sub)
		close(sub.ch)
	}
}

func (m *Manager) emit(ev Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for sub := range m.subs {
		select {
		case sub.ch <- ev:
		default:
			// subscriber is not keeping up; it refetches on the next event
		}
	}
}
