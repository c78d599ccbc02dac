package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	aerrors "github.com/morten-olsen/aura/errors"
)

// FileStore persists tickets as JSON files, one per ticket, under baseDir.
// Writes go through a temp file plus rename so a crash never leaves a
// half-written ticket behind.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileStore creates a file-backed ticket store rooted at baseDir.
func NewFileStore(baseDir string) (*FileStore, error) {
	dir := filepath.Join(baseDir, "tickets")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ticket dir: %w", err)
	}
	return &FileStore{baseDir: dir}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

// Create adds a new ticket. Fails if the ID already exists.
func (s *FileStore) Create(_ context.Context, t *Ticket) error {
	if t == nil || t.ID == "" {
		return aerrors.NewValidation("id", "ticket id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path(t.ID)); err == nil {
		return aerrors.NewValidation("id", "ticket already exists")
	}
	return s.write(t)
}

// Get returns the ticket, or ErrNotFound.
func (s *FileStore) Get(_ context.Context, id string) (*Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.read(id)
}

// List returns all tickets ordered by creation time, newest first.
func (s *FileStore) List(_ context.Context) ([]*Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read ticket dir: %w", err)
	}

	var out []*Ticket
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		t, err := s.read(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Update replaces a stored ticket. Fails with ErrNotFound if absent.
func (s *FileStore) Update(_ context.Context, t *Ticket) error {
	if t == nil || t.ID == "" {
		return aerrors.NewValidation("id", "ticket id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path(t.ID)); err != nil {
		return aerrors.ErrNotFound
	}
	return s.write(t)
}

// Delete removes a ticket. Fails with ErrNotFound if absent.
func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return aerrors.ErrNotFound
		}
		return fmt.Errorf("delete ticket %s: %w", id, err)
	}
	return nil
}

func (s *FileStore) write(t *Ticket) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ticket %s: %w", t.ID, err)
	}

	tmp := s.path(t.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ticket %s: %w", t.ID, err)
	}
	if err := os.Rename(tmp, s.path(t.ID)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit ticket %s: %w", t.ID, err)
	}
	return nil
}

func (s *FileStore) read(id string) (*Ticket, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, aerrors.ErrNotFound
		}
		return nil, fmt.Errorf("read ticket %s: %w", id, err)
	}

	var t Ticket
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("unmarshal ticket %s: %w", id, err)
	}
	return &t, nil
}
