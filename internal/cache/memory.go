package cache

import (
	"context"
	"sync"

	"lancafe/internal/models"
)

// Memory is a process-local ActiveSessions backend. The mutex makes it safe
// for concurrent HTTP handlers, unlike the event-loop clients it replaces.
type Memory struct {
	mu       sync.RWMutex
	sessions map[int64]models.Session
}

// NewMemory returns an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[int64]models.Session)}
}

// Get returns the cached session for the account, or ErrMiss.
func (m *Memory) Get(_ context.Context, accountID int64) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[accountID]
	if !ok {
		return nil, ErrMiss
	}
	copied := session
	return &copied, nil
}

// Set stores a copy of the session keyed by its account id.
func (m *Memory) Set(_ context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.AccountID] = *session
	return nil
}

// Delete removes the account's entry, if any.
func (m *Memory) Delete(_ context.Context, accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, accountID)
	return nil
}
