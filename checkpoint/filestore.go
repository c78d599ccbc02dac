package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	aerrors "github.com/morten-olsen/aura/errors"
)

// FileStore persists checkpoints on disk: one directory per ticket, one JSON
// file per checkpoint. Every write goes through a temp file plus rename so a
// crash mid-write never corrupts a recoverable snapshot.
type FileStore struct {
	baseDir string
	mu      sync.Mutex
}

// NewFileStore creates a file-backed checkpoint store rooted at baseDir.
func NewFileStore(baseDir string) (*FileStore, error) {
	dir := filepath.Join(baseDir, "checkpoints")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	return &FileStore{baseDir: dir}, nil
}

func (s *FileStore) ticketDir(ticketID string) string {
	return filepath.Join(s.baseDir, ticketID)
}

func (s *FileStore) path(ticketID, checkpointID string) string {
	return filepath.Join(s.ticketDir(ticketID), checkpointID+".json")
}

// Put upserts a checkpoint keyed on (ticketID, ID).
func (s *FileStore) Put(_ context.Context, req PutRequest) (string, error) {
	if req.TicketID == "" {
		return "", aerrors.NewValidation("ticketId", "ticket id is required")
	}
	if len(req.Snapshot) == 0 {
		return "", aerrors.NewValidation("snapshot", "snapshot is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.ticketDir(req.TicketID), 0o755); err != nil {
		return "", fmt.Errorf("create ticket dir: %w", err)
	}

	id := req.ID
	if id == "" {
		id = NewID()
	}

	now := time.Now()
	cp, err := s.read(req.TicketID, id)
	switch {
	case err == nil:
		// Upsert of the same pair: replace payload, keep identity, sequence,
		// and pending writes.
		cp.ParentID = req.ParentID
		cp.Snapshot = req.Snapshot
		cp.Metadata = req.Metadata
		cp.UpdatedAt = now
	case errors.Is(err, ErrNotFound):
		seq, seqErr := s.nextSeq(req.TicketID)
		if seqErr != nil {
			return "", seqErr
		}
		cp = &Checkpoint{
			TicketID:  req.TicketID,
			ID:        id,
			ParentID:  req.ParentID,
			Seq:       seq,
			Snapshot:  req.Snapshot,
			Metadata:  req.Metadata,
			CreatedAt: now,
			UpdatedAt: now,
		}
	default:
		return "", err
	}

	if err := s.write(cp); err != nil {
		return "", err
	}
	return id, nil
}

// Latest returns the named checkpoint, or the newest one when checkpointID
// is empty.
func (s *FileStore) Latest(_ context.Context, ticketID, checkpointID string) (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if checkpointID != "" {
		return s.read(ticketID, checkpointID)
	}

	all, err := s.readAll(ticketID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrNotFound
	}
	newest := all[0]
	for _, cp := range all[1:] {
		if cp.Seq > newest.Seq {
			newest = cp
		}
	}
	return newest, nil
}

// List returns checkpoints newest-first.
func (s *FileStore) List(_ context.Context, ticketID, before string, limit int) ([]*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll(ticketID)
	if err != nil {
		return nil, err
	}

	var cutoff int64 = -1
	if before != "" {
		found := false
		for _, cp := range all {
			if cp.ID == before {
				cutoff = cp.Seq
				found = true
				break
			}
		}
		if !found {
			return nil, ErrNotFound
		}
	}

	var out []*Checkpoint
	for _, cp := range all {
		if cutoff >= 0 && cp.Seq >= cutoff {
			continue
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AppendPendingWrites attaches side effects to an existing checkpoint.
func (s *FileStore) AppendPendingWrites(_ context.Context, ticketID, checkpointID, taskID string, writes []json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, err := s.read(ticketID, checkpointID)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, w := range writes {
		cp.PendingWrites = append(cp.PendingWrites, PendingWrite{
			TaskID: taskID,
			Data:   w,
			At:     now,
		})
	}
	cp.UpdatedAt = now
	return s.write(cp)
}

// DeleteAll removes every checkpoint for a ticket.
func (s *FileStore) DeleteAll(_ context.Context, ticketID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.ticketDir(ticketID)); err != nil {
		return fmt.Errorf("delete checkpoints for %s: %w", ticketID, err)
	}
	return nil
}

// nextSeq scans the chain for the highest sequence and returns the next one.
func (s *FileStore) nextSeq(ticketID string) (int64, error) {
	all, err := s.readAll(ticketID)
	if err != nil {
		return 0, err
	}
	var max int64
	for _, cp := range all {
		if cp.Seq > max {
			max = cp.Seq
		}
	}
	return max + 1, nil
}

func (s *FileStore) readAll(ticketID string) ([]*Checkpoint, error) {
	entries, err := os.ReadDir(s.ticketDir(ticketID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read checkpoint dir: %w", err)
	}

	var out []*Checkpoint
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		cp, err := s.read(ticketID, strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		out = append(out, cp)
	}
	return out, nil
}

func (s *FileStore) read(ticketID, checkpointID string) (*Checkpoint, error) {
	data, err := os.ReadFile(s.path(ticketID, checkpointID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read checkpoint %s/%s: %w", ticketID, checkpointID, err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint %s/%s: %w", ticketID, checkpointID, err)
	}
	return &cp, nil
}

func (s *FileStore) write(cp *Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint %s/%s: %w", cp.TicketID, cp.ID, err)
	}

	path := s.path(cp.TicketID, cp.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint %s/%s: %w", cp.TicketID, cp.ID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit checkpoint %s/%s: %w", cp.TicketID, cp.ID, err)
	}
	return nil
}
