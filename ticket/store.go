package ticket

import (
	"context"
	"sort"
	"sync"

	aerrors "github.com/morten-olsen/aura/errors"
)

// Store persists tickets. Implementations must return deep copies so callers
// cannot mutate stored state without going through Update.
type Store interface {
	Create(ctx context.Context, t *Ticket) error
	Get(ctx context.Context, id string) (*Ticket, error)
	List(ctx context.Context) ([]*Ticket, error)
	Update(ctx context.Context, t *Ticket) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore is an in-memory ticket store for tests and embedded use.
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[string]*Ticket
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tickets: make(map[string]*Ticket)}
}

// Create adds a new ticket. Fails if the ID already exists.
func (s *MemoryStore) Create(_ context.Context, t *Ticket) error {
	if t == nil || t.ID == "" {
		return aerrors.NewValidation("id", "ticket id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tickets[t.ID]; exists {
		return aerrors.NewValidation("id", "ticket already exists")
	}
	s.tickets[t.ID] = t.Clone()
	return nil
}

// Get returns a copy of the ticket, or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, id string) (*Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tickets[id]
	if !ok {
		return nil, aerrors.ErrNotFound
	}
	return t.Clone(), nil
}

// List returns all tickets ordered by creation time, newest first.
func (s *MemoryStore) List(_ context.Context) ([]*Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Update replaces a stored ticket. Fails with ErrNotFound if absent.
func (s *MemoryStore) Update(_ context.Context, t *Ticket) error {
	if t == nil || t.ID == "" {
		return aerrors.NewValidation("id", "ticket id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[t.ID]; !ok {
		return aerrors.ErrNotFound
	}
	s.tickets[t.ID] = t.Clone()
	return nil
}

// Delete removes a ticket. Fails with ErrNotFound if absent.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[id]; !ok {
		return aerrors.ErrNotFound
	}
	delete(s.tickets, id)
	return nil
}
