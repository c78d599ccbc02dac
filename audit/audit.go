package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one audit record. Entries are append-only; nothing edits or
// removes them.
type Entry struct {
	Time     time.Time `json:"time"`
	TicketID string    `json:"ticketId"`
	Actor    string    `json:"actor,omitempty"`
	Action   string    `json:"action"`
	Detail   string    `json:"detail,omitempty"`
}

// Well-known actions recorded by the lifecycle controller.
const (
	ActionCreated      = "created"
	ActionTransition   = "status_transition"
	ActionRunStarted   = "run_started"
	ActionRunFinished  = "run_finished"
	ActionPlanApproved = "plan_approved"
	ActionPlanRejected = "plan_rejected"
	ActionAnswered     = "question_answered"
	ActionCancelled    = "cancelled"
)

// Log is an append-only audit sink.
type Log interface {
	Append(ctx context.Context, entry Entry) error
}

// =============================================================================
// MemoryLog
// =============================================================================

// MemoryLog keeps entries in memory, for tests and ephemeral runs.
type MemoryLog struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryLog creates an empty in-memory audit log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append implements Log.
func (l *MemoryLog) Append(ctx context.Context, entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}
	l.entries = append(l.entries, entry)
	return nil
}

// Entries returns a copy of all recorded entries in append order.
func (l *MemoryLog) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// ForTicket returns entries for one ticket in append order.
func (l *MemoryLog) ForTicket(ticketID string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	for _, e := range l.entries {
		if e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// FileLog
// =============================================================================

// FileLog appends entries to a JSONL file, one JSON object per line.
type FileLog struct {
	mu   sync.Mutex
	path string
}

// NewFileLog creates a JSONL audit log at path, creating parent
// directories as needed.
func NewFileLog(path string) (*FileLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit log dir: %w", err)
	}
	return &FileLog{path: path}, nil
}

// Append implements Log. Each entry is written and synced before returning.
func (l *FileLog) Append(ctx context.Context, entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return f.Sync()
}

// Read returns every entry in the file in append order.
func (l *FileLog) Read() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	var entries []Entry
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
