package transcript

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileStore keeps one directory per run under <base>/runs/<runID>. While a
// run is active its transcript accumulates in memory; EndRun writes the
// full conversation to disk. Metadata is written eagerly so crashed runs
// still show up in listings.
type FileStore struct {
	baseDir string

	mu     sync.RWMutex
	active map[string]*Transcript
}

// StoreConfig holds configuration for transcript storage.
type StoreConfig struct {
	BaseDir string
}

// NewFileStore creates a file-based transcript store.
func NewFileStore(config StoreConfig) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(config.BaseDir, "runs"), 0755); err != nil {
		return nil, err
	}
	return &FileStore{
		baseDir: config.BaseDir,
		active:  make(map[string]*Transcript),
	}, nil
}

// StartRun begins a new transcript. Run IDs are unique across restarts: a
// run that already exists on disk cannot be started again.
func (s *FileStore) StartRun(runID string, meta RunMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.active[runID]; exists {
		return ErrRunAlreadyExists
	}
	runDir := s.runDir(runID)
	if _, err := os.Stat(runDir); err == nil {
		return ErrRunAlreadyExists
	}
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	tr := &Transcript{
		RunID: runID,
		Metadata: Meta{
			RunID:     runID,
			TicketID:  meta.TicketID,
			Phase:     meta.Phase,
			Input:     meta.Input,
			StartedAt: time.Now(),
			Status:    RunStatusRunning,
		},
		Turns: make([]Turn, 0),
	}
	if err := s.writeMetadata(runID, &tr.Metadata); err != nil {
		return err
	}

	s.active[runID] = tr
	return nil
}

// RecordTurn appends a turn to an active transcript. Turn IDs number from
// one in recording order.
func (s *FileStore) RecordTurn(runID string, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := s.active[runID]
	if !ok {
		return ErrRunNotStarted
	}

	turn.ID = len(tr.Turns) + 1
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	tr.Turns = append(tr.Turns, turn)

	tr.Metadata.TotalTokensIn += turn.TokensIn
	tr.Metadata.TotalTokensOut += turn.TokensOut
	tr.Metadata.TurnCount = len(tr.Turns)
	return nil
}

// EndRun completes a transcript and persists the full conversation.
func (s *FileStore) EndRun(runID string, status RunStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finish(runID, status, "")
}

// EndRunWithError completes a transcript as failed, recording the error in
// the run metadata.
func (s *FileStore) EndRunWithError(runID string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return s.finish(runID, RunStatusFailed, msg)
}

func (s *FileStore) finish(runID string, status RunStatus, errMsg string) error {
	tr, ok := s.active[runID]
	if !ok {
		return ErrRunNotStarted
	}

	tr.Metadata.Status = status
	tr.Metadata.EndedAt = time.Now()
	tr.Metadata.Error = errMsg

	if err := tr.Save(s.baseDir); err != nil {
		return err
	}
	if err := s.writeMetadata(runID, &tr.Metadata); err != nil {
		return err
	}

	delete(s.active, runID)
	return nil
}

// Load retrieves a complete transcript, from memory for active runs and
// from disk otherwise. Callers get their own copy.
func (s *FileStore) Load(runID string) (*Transcript, error) {
	s.mu.RLock()
	tr, ok := s.active[runID]
	s.mu.RUnlock()
	if !ok {
		return Load(s.baseDir, runID)
	}

	data, err := json.Marshal(tr)
	if err != nil {
		return nil, err
	}
	var out Transcript
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoadMetadata retrieves just the run metadata.
func (s *FileStore) LoadMetadata(runID string) (*Meta, error) {
	s.mu.RLock()
	if tr, ok := s.active[runID]; ok {
		meta := tr.Metadata
		s.mu.RUnlock()
		return &meta, nil
	}
	s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.runDir(runID), "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// List returns metadata for runs matching the filter, newest first.
func (s *FileStore) List(filter ListFilter) ([]Meta, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, "runs"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var results []Meta
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.LoadMetadata(entry.Name())
		if err != nil {
			continue
		}
		if !filter.matches(meta) {
			continue
		}
		results = append(results, *meta)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].StartedAt.After(results[j].StartedAt)
	})
	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results, nil
}

func (f ListFilter) matches(meta *Meta) bool {
	if f.TicketID != "" && meta.TicketID != f.TicketID {
		return false
	}
	if f.Status != "" && meta.Status != f.Status {
		return false
	}
	if !f.After.IsZero() && meta.StartedAt.Before(f.After) {
		return false
	}
	if !f.Before.IsZero() && meta.StartedAt.After(f.Before) {
		return false
	}
	return true
}

// Delete removes a run from memory and disk.
func (s *FileStore) Delete(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.active, runID)
	if err := os.RemoveAll(s.runDir(runID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// BaseDir returns the base directory for the store.
func (s *FileStore) BaseDir() string {
	return s.baseDir
}

func (s *FileStore) runDir(runID string) string {
	return filepath.Join(s.baseDir, "runs", runID)
}

func (s *FileStore) writeMetadata(runID string, meta *Meta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.runDir(runID), "metadata.json"), data, 0644)
}
