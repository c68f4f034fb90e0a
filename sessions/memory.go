package sessions

import (
	"context"
	"sync"
	"time"

	"reelops/models"
)

// MemoryStore keeps sessions in a process-local map. Sessions do not survive
// a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]models.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, role models.Role) (models.Session, error) {
	s, err := newSession(role, m.ttl, m.now())
	if err != nil {
		return models.Session{}, err
	}
	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()
	return s, nil
}

func (m *MemoryStore) Get(_ context.Context, token string) (models.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return models.Session{}, models.ErrSessionNotFound
	}
	if s.Expired(m.now()) {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return models.Session{}, models.ErrSessionNotFound
	}
	return s, nil
}

func (m *MemoryStore) Destroy(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

// Sweep drops expired sessions every interval until ctx is done.
func (m *MemoryStore) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := m.now()
			m.mu.Lock()
			for token, s := range m.sessions {
				if s.Expired(now) {
					delete(m.sessions, token)
				}
			}
			m.mu.Unlock()
		}
	}
}

// Len is the number of live entries, expired ones included until swept.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
