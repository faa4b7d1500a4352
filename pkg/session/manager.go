package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Manager is a concurrent-safe registry of sessions. Sessions never share
// mutable state with each other.
type Manager struct {
	cfg Config

	mu       sync.RWMutex
	sessions map[string]*Session
	onEvent  func(Event)
}

// NewManager creates an empty registry
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// OnEvent sets the callback for state transitions of every session,
// including ones already created
func (m *Manager) OnEvent(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvent = fn
	for _, s := range m.sessions {
		s.setOnEvent(fn)
	}
}

// Create starts a new session with a random id
func (m *Manager) Create() (*Session, error) {
	id := uuid.NewString()
	s, err := New(id, m.cfg)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s.onEvent = m.onEvent
	m.sessions[id] = s
	return s, nil
}

// Get returns the session with the given id
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Delete drops the session with the given id
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

// List returns snapshots of every session, oldest first
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	out := make([]Snapshot, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Labels returns the canonical label names sessions are built with
func (m *Manager) Labels() []string {
	return m.cfg.Labels.Canonical().Names()
}
