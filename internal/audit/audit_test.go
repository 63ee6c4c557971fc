package audit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyc/pkg/requestcontext"
)

func TestDiffChangesReportsChangedFieldsOnly(t *testing.T) {
	type snapshot struct {
		FirstName  string `json:"firstName"`
		PostalCode string `json:"postalCode"`
		Progress   int    `json:"progress"`
	}
	pre := snapshot{FirstName: "Thandi", PostalCode: "2161", Progress: 50}
	post := snapshot{FirstName: "Thandi", PostalCode: "2188", Progress: 75}

	entry := NewEntry("CUST-001", "ORG-001", "agent@example.com",
		ActionCustomerUpdated, pre, post, time.Now())

	require.Len(t, entry.Changes, 2)
	assert.Equal(t, Change{
		FieldName:      "postalCode",
		PreviousValue:  `"2161"`,
		ChangedToValue: `"2188"`,
	}, entry.Changes[0])
	assert.Equal(t, Change{
		FieldName:      "progress",
		PreviousValue:  `50`,
		ChangedToValue: `75`,
	}, entry.Changes[1])
}

func TestDiffChangesWithoutPreChangeSnapshot(t *testing.T) {
	post := map[string]any{"firstName": "Thandi"}

	entry := NewEntry("CUST-001", "ORG-001", "agent@example.com",
		ActionCustomerCreated, nil, post, time.Now())

	require.Len(t, entry.Changes, 1)
	assert.Equal(t, "", entry.Changes[0].PreviousValue)
	assert.Equal(t, `"Thandi"`, entry.Changes[0].ChangedToValue)
}

func TestPublisherDropsInvalidRequests(t *testing.T) {
	p := NewPublisher(4, nil)

	p.Emit(context.Background(), Request{Action: ActionCustomerCreated})

	select {
	case e := <-p.Inbox():
		t.Fatalf("expected no entry, got %+v", e)
	default:
	}
}

func TestPublisherDoesNotBlockWhenFull(t *testing.T) {
	p := NewPublisher(1, nil)
	req := Request{CustomerID: "CUST-001", OrganisationID: "ORG-001", Action: ActionValidation}

	done := make(chan struct{})
	go func() {
		p.Emit(context.Background(), req)
		p.Emit(context.Background(), req)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full inbox")
	}
}

func TestPublisherStampsRequestTime(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), fixed)
	p := NewPublisher(4, nil)

	p.Emit(ctx, Request{CustomerID: "CUST-001", OrganisationID: "ORG-001", Action: ActionValidation})

	entry := <-p.Inbox()
	assert.Equal(t, fixed, entry.DateCreated)
	assert.NotEmpty(t, entry.ID)
}

type failingStore struct {
	MemoryStore
	fail atomic.Bool
}

func (s *failingStore) Append(ctx context.Context, entry Entry) error {
	if s.fail.Load() {
		return errors.New("db down")
	}
	return s.MemoryStore.Append(ctx, entry)
}

type recordingSink struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (s *recordingSink) Publish(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func TestWorkerPersistsAndForwards(t *testing.T) {
	store := NewMemoryStore()
	sink := &recordingSink{}
	inbox := make(chan Entry, 2)
	w := NewWorker(store, sink, inbox, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	inbox <- NewEntry("CUST-001", "ORG-001", "system", ActionValidation, nil, nil, time.Now())

	require.Eventually(t, func() bool {
		entries, err := store.ListByOrganisation(context.Background(), "ORG-001")
		return err == nil && len(entries) == 1 && sink.count() == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestWorkerSurvivesBackendFailures(t *testing.T) {
	store := &failingStore{}
	store.fail.Store(true)
	sink := &recordingSink{err: errors.New("broker down")}
	inbox := make(chan Entry, 2)
	w := NewWorker(store, sink, inbox, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	inbox <- NewEntry("CUST-001", "ORG-001", "system", ActionValidation, nil, nil, time.Now())
	store.fail.Store(false)
	sink.mu.Lock()
	sink.err = nil
	sink.mu.Unlock()
	inbox <- NewEntry("CUST-002", "ORG-001", "system", ActionValidation, nil, nil, time.Now())

	require.Eventually(t, func() bool {
		entries, err := store.ListByOrganisation(context.Background(), "ORG-001")
		if err != nil {
			return false
		}
		for _, e := range entries {
			if e.CustomerID == "CUST-002" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond, "worker keeps consuming after failures")
}
