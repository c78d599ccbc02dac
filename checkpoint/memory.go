package checkpoint

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	aerrors "github.com/morten-olsen/aura/errors"
)

// MemoryStore is an in-memory checkpoint store for tests and embedded use.
type MemoryStore struct {
	mu     sync.RWMutex
	chains map[string]map[string]*Checkpoint // ticketID -> checkpointID -> checkpoint
	seqs   map[string]int64                  // ticketID -> last assigned seq
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chains: make(map[string]map[string]*Checkpoint),
		seqs:   make(map[string]int64),
	}
}

// Put upserts a checkpoint keyed on (ticketID, ID).
func (s *MemoryStore) Put(_ context.Context, req PutRequest) (string, error) {
	if req.TicketID == "" {
		return "", aerrors.NewValidation("ticketId", "ticket id is required")
	}
	if len(req.Snapshot) == 0 {
		return "", aerrors.NewValidation("snapshot", "snapshot is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chain, ok := s.chains[req.TicketID]
	if !ok {
		chain = make(map[string]*Checkpoint)
		s.chains[req.TicketID] = chain
	}

	id := req.ID
	if id == "" {
		id = NewID()
	}

	now := time.Now()
	if existing, ok := chain[id]; ok {
		// Re-entrant write of the same pair: replace payload, keep identity,
		// sequence, and pending writes.
		existing.ParentID = req.ParentID
		existing.Snapshot = append(json.RawMessage(nil), req.Snapshot...)
		existing.Metadata = req.Metadata
		existing.UpdatedAt = now
		return id, nil
	}

	s.seqs[req.TicketID]++
	chain[id] = &Checkpoint{
		TicketID:  req.TicketID,
		ID:        id,
		ParentID:  req.ParentID,
		Seq:       s.seqs[req.TicketID],
		Snapshot:  append(json.RawMessage(nil), req.Snapshot...),
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return id, nil
}

// Latest returns the named checkpoint, or the newest one when checkpointID
// is empty.
func (s *MemoryStore) Latest(_ context.Context, ticketID, checkpointID string) (*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chain, ok := s.chains[ticketID]
	if !ok || len(chain) == 0 {
		return nil, ErrNotFound
	}

	if checkpointID != "" {
		cp, ok := chain[checkpointID]
		if !ok {
			return nil, ErrNotFound
		}
		return cloneCheckpoint(cp), nil
	}

	var newest *Checkpoint
	for _, cp := range chain {
		if newest == nil || cp.Seq > newest.Seq {
			newest = cp
		}
	}
	return cloneCheckpoint(newest), nil
}

// List returns checkpoints newest-first.
func (s *MemoryStore) List(_ context.Context, ticketID, before string, limit int) ([]*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chain := s.chains[ticketID]
	var cutoff int64 = -1
	if before != "" {
		cp, ok := chain[before]
		if !ok {
			return nil, ErrNotFound
		}
		cutoff = cp.Seq
	}

	var out []*Checkpoint
	for _, cp := range chain {
		if cutoff >= 0 && cp.Seq >= cutoff {
			continue
		}
		out = append(out, cloneCheckpoint(cp))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AppendPendingWrites attaches side effects to an existing checkpoint.
func (s *MemoryStore) AppendPendingWrites(_ context.Context, ticketID, checkpointID, taskID string, writes []json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain, ok := s.chains[ticketID]
	if !ok {
		return ErrNotFound
	}
	cp, ok := chain[checkpointID]
	if !ok {
		return ErrNotFound
	}

	now := time.Now()
	for _, w := range writes {
		cp.PendingWrites = append(cp.PendingWrites, PendingWrite{
			TaskID: taskID,
			Data:   append(json.RawMessage(nil), w...),
			At:     now,
		})
	}
	cp.UpdatedAt = now
	return nil
}

// DeleteAll removes every checkpoint for a ticket.
func (s *MemoryStore) DeleteAll(_ context.Context, ticketID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.chains, ticketID)
	delete(s.seqs, ticketID)
	return nil
}

func cloneCheckpoint(cp *Checkpoint) *Checkpoint {
	out := *cp
	out.Snapshot = append(json.RawMessage(nil), cp.Snapshot...)
	if cp.PendingWrites != nil {
		out.PendingWrites = make([]PendingWrite, len(cp.PendingWrites))
		for i, w := range cp.PendingWrites {
			cw := w
			cw.Data = append(json.RawMessage(nil), w.Data...)
			out.PendingWrites[i] = cw
		}
	}
	if cp.Metadata.Extra != nil {
		extra := make(map[string]string, len(cp.Metadata.Extra))
		for k, v := range cp.Metadata.Extra {
			extra[k] = v
		}
		out.Metadata.Extra = extra
	}
	return &out
}
