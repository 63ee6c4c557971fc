package liveness

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	binding   Binding
	expiresAt time.Time
}

// MemoryStore is the in-process session store used by tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Bind(_ context.Context, sessionID string, binding Binding, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = memoryEntry{binding: binding, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Lookup(_ context.Context, sessionID string) (Binding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[sessionID]
	if !ok || time.Now().After(entry.expiresAt) {
		return Binding{}, ErrSessionNotFound
	}
	return entry.binding, nil
}
