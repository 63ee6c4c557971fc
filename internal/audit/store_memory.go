package audit

import (
	"context"
	"sync"
)

// MemoryStore keeps audit entries in process memory, for tests and local
// development.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryStore) ListByOrganisation(_ context.Context, organisationID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries {
		if e.OrganisationID == organisationID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, entryID, organisationID string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == entryID && e.OrganisationID == organisationID {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}
