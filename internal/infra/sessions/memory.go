package sessions

import (
	"context"
	"sync"

	"tg-sleep-bot/internal/domain"
)

// MemoryStore is an in-process session store for single-node runs and tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]domain.Session
}

// NewMemory builds the store.
func NewMemory() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]domain.Session)}
}

// Get returns the stored session, or an idle one if none exists.
func (s *MemoryStore) Get(ctx context.Context, tgUserID int64) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[tgUserID], nil
}

// Put stores the session.
func (s *MemoryStore) Put(ctx context.Context, tgUserID int64, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[tgUserID] = session
	return nil
}

// Delete drops the session.
func (s *MemoryStore) Delete(ctx context.Context, tgUserID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tgUserID)
	return nil
}
