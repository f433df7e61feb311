package session

import (
	"errors"
	"sort"
	"sync"

	"github.com/ayusman/lungescore/internal/pose"
)

// ErrNotFound is returned for an unknown session ID.
var ErrNotFound = errors.New("session: not found")

type entry struct {
	mu      sync.Mutex
	session *Session
}

// Manager is a registry of hosted sessions keyed by ID. The map is guarded by a
// read-write lock and each session by its own mutex, so frames for different
// sessions never wait on each other.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	defaults Config
}

// NewManager creates an empty registry whose sessions start from defaults.
func NewManager(defaults Config) *Manager {
	return &Manager{
		sessions: make(map[string]*entry),
		defaults: defaults,
	}
}

// Defaults returns the configuration new sessions start from.
func (m *Manager) Defaults() Config {
	return m.defaults
}

// Create builds and registers a session.
func (m *Manager) Create(cfg Config) (*Session, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = &entry{session: s}
	m.mu.Unlock()

	return s, nil
}

// Update feeds one frame to the session.
func (m *Manager) Update(id string, frame pose.Frame) (Result, error) {
	var r Result
	err := m.with(id, func(s *Session) {
		r = s.Update(frame)
	})
	return r, err
}

// Last returns the session's most recent result.
func (m *Manager) Last(id string) (Result, error) {
	var r Result
	err := m.with(id, func(s *Session) {
		r = s.Last()
	})
	return r, err
}

// Config returns the session's configuration.
func (m *Manager) Config(id string) (Config, error) {
	var c Config
	err := m.with(id, func(s *Session) {
		c = s.Config()
	})
	return c, err
}

// Reset clears the session's state.
func (m *Manager) Reset(id string) error {
	return m.with(id, func(s *Session) {
		s.Reset()
	})
}

// Delete removes the session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// IDs returns the registered session IDs in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) with(id string, fn func(*Session)) error {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.session)
	return nil
}
