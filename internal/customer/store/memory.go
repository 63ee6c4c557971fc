package store

import (
	"context"
	"sort"
	"sync"

	"kyc/internal/customer/models"
)

// MemoryStore keeps records in process memory, for tests and local
// development. It favours clarity over performance.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[memoryKey]*models.Customer
}

type memoryKey struct {
	customerID     string
	organisationID string
}

func NewMemory() *MemoryStore {
	return &MemoryStore{records: make(map[memoryKey]*models.Customer)}
}

func (s *MemoryStore) Get(_ context.Context, customerID, organisationID string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.records[memoryKey{customerID, organisationID}]
	if !ok || c.IsDeleted {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, customer *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[memoryKey{customer.ID, customer.OrganisationID}] = customer.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, customerID, organisationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.records[memoryKey{customerID, organisationID}]
	if !ok || c.IsDeleted {
		return ErrNotFound
	}
	c.IsDeleted = true
	return nil
}

func (s *MemoryStore) ListByOrganisation(_ context.Context, organisationID string) ([]*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Customer
	for key, c := range s.records {
		if key.organisationID != organisationID || c.IsDeleted {
			continue
		}
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateCreated.Before(out[j].DateCreated) })
	return out, nil
}
