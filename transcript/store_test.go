package transcript

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(StoreConfig{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return s
}

func TestStartRun(t *testing.T) {
	s := newTestStore(t)

	err := s.StartRun("run-1", RunMetadata{TicketID: "tk-421", Phase: "planning"})
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	meta, err := s.LoadMetadata("run-1")
	if err != nil {
		t.Fatalf("LoadMetadata() error = %v", err)
	}
	if meta.TicketID != "tk-421" {
		t.Errorf("TicketID = %q, want %q", meta.TicketID, "tk-421")
	}
	if meta.Status != RunStatusRunning {
		t.Errorf("Status = %q, want %q", meta.Status, RunStatusRunning)
	}
}

func TestStartRun_Duplicate(t *testing.T) {
	s := newTestStore(t)

	if err := s.StartRun("run-1", RunMetadata{TicketID: "tk-1"}); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	if err := s.StartRun("run-1", RunMetadata{TicketID: "tk-1"}); !errors.Is(err, ErrRunAlreadyExists) {
		t.Errorf("StartRun() error = %v, want ErrRunAlreadyExists", err)
	}
}

func TestRecordTurn(t *testing.T) {
	s := newTestStore(t)
	if err := s.StartRun("run-1", RunMetadata{TicketID: "tk-1"}); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	turns := []Turn{
		{Role: "user", Content: "build the thing", TokensIn: 12},
		{Role: "assistant", Content: "on it", TokensOut: 7},
	}
	for _, turn := range turns {
		if err := s.RecordTurn("run-1", turn); err != nil {
			t.Fatalf("RecordTurn() error = %v", err)
		}
	}

	tr, err := s.Load("run-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(tr.Turns) != 2 {
		t.Fatalf("len(Turns) = %d, want 2", len(tr.Turns))
	}
	if tr.Turns[0].ID != 1 || tr.Turns[1].ID != 2 {
		t.Errorf("turn IDs = %d, %d, want 1, 2", tr.Turns[0].ID, tr.Turns[1].ID)
	}
	if tr.Metadata.TotalTokensIn != 12 {
		t.Errorf("TotalTokensIn = %d, want 12", tr.Metadata.TotalTokensIn)
	}
	if tr.Metadata.TotalTokensOut != 7 {
		t.Errorf("TotalTokensOut = %d, want 7", tr.Metadata.TotalTokensOut)
	}
	if tr.Metadata.TurnCount != 2 {
		t.Errorf("TurnCount = %d, want 2", tr.Metadata.TurnCount)
	}
}

func TestRecordTurn_NotStarted(t *testing.T) {
	s := newTestStore(t)

	err := s.RecordTurn("missing", Turn{Role: "user", Content: "hello"})
	if !errors.Is(err, ErrRunNotStarted) {
		t.Errorf("RecordTurn() error = %v, want ErrRunNotStarted", err)
	}
}

func TestRecordTurn_ToolCalls(t *testing.T) {
	s := newTestStore(t)
	if err := s.StartRun("run-1", RunMetadata{TicketID: "tk-1"}); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	turn := Turn{
		Role:    "tool",
		Content: "ok",
		ToolCalls: []ToolCall{
			{Name: "run_command", Input: `{"command":"go test ./..."}`, Output: "ok"},
		},
	}
	if err := s.RecordTurn("run-1", turn); err != nil {
		t.Fatalf("RecordTurn() error = %v", err)
	}

	tr, _ := s.Load("run-1")
	if len(tr.Turns[0].ToolCalls) != 1 {
		t.Fatalf("len(ToolCalls) = %d, want 1", len(tr.Turns[0].ToolCalls))
	}
	if tr.Turns[0].ToolCalls[0].Name != "run_command" {
		t.Errorf("tool name = %q, want %q", tr.Turns[0].ToolCalls[0].Name, "run_command")
	}
}

func TestEndRun(t *testing.T) {
	s := newTestStore(t)
	if err := s.StartRun("run-1", RunMetadata{TicketID: "tk-1", Phase: "executing"}); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	if err := s.RecordTurn("run-1", Turn{Role: "assistant", Content: "done"}); err != nil {
		t.Fatalf("RecordTurn() error = %v", err)
	}

	if err := s.EndRun("run-1", RunStatusCompleted); err != nil {
		t.Fatalf("EndRun() error = %v", err)
	}

	// Run is no longer active but loads from disk.
	if err := s.RecordTurn("run-1", Turn{Role: "user", Content: "late"}); !errors.Is(err, ErrRunNotStarted) {
		t.Errorf("RecordTurn() after EndRun error = %v, want ErrRunNotStarted", err)
	}
	tr, err := s.Load("run-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if tr.Metadata.Status != RunStatusCompleted {
		t.Errorf("Status = %q, want %q", tr.Metadata.Status, RunStatusCompleted)
	}
	if tr.Metadata.EndedAt.IsZero() {
		t.Error("EndedAt is zero after EndRun")
	}
}

func TestEndRunWithError(t *testing.T) {
	s := newTestStore(t)
	if err := s.StartRun("run-1", RunMetadata{TicketID: "tk-1"}); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	if err := s.EndRunWithError("run-1", errors.New("model unavailable")); err != nil {
		t.Fatalf("EndRunWithError() error = %v", err)
	}

	meta, err := s.LoadMetadata("run-1")
	if err != nil {
		t.Fatalf("LoadMetadata() error = %v", err)
	}
	if meta.Status != RunStatusFailed {
		t.Errorf("Status = %q, want %q", meta.Status, RunStatusFailed)
	}
	if meta.Error != "model unavailable" {
		t.Errorf("Error = %q, want %q", meta.Error, "model unavailable")
	}
}

func TestLoad_NotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Load("no-such-run"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Load() error = %v, want ErrRunNotFound", err)
	}
}

func TestList_Filters(t *testing.T) {
	s := newTestStore(t)

	runs := []struct {
		id       string
		ticketID string
		status   RunStatus
	}{
		{"run-1", "tk-1", RunStatusCompleted},
		{"run-2", "tk-1", RunStatusFailed},
		{"run-3", "tk-2", RunStatusCompleted},
	}
	for _, r := range runs {
		if err := s.StartRun(r.id, RunMetadata{TicketID: r.ticketID}); err != nil {
			t.Fatalf("StartRun(%q) error = %v", r.id, err)
		}
		if err := s.EndRun(r.id, r.status); err != nil {
			t.Fatalf("EndRun(%q) error = %v", r.id, err)
		}
	}

	tests := []struct {
		name   string
		filter ListFilter
		want   int
	}{
		{"all", ListFilter{}, 3},
		{"by ticket", ListFilter{TicketID: "tk-1"}, 2},
		{"by status", ListFilter{Status: RunStatusFailed}, 1},
		{"ticket and status", ListFilter{TicketID: "tk-2", Status: RunStatusFailed}, 0},
		{"limit", ListFilter{Limit: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metas, err := s.List(tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(metas) != tt.want {
				t.Errorf("len(List()) = %d, want %d", len(metas), tt.want)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	if err := s.StartRun("run-1", RunMetadata{TicketID: "tk-1"}); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	if err := s.EndRun("run-1", RunStatusCompleted); err != nil {
		t.Fatalf("EndRun() error = %v", err)
	}

	if err := s.Delete("run-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Load("run-1"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Load() after Delete error = %v, want ErrRunNotFound", err)
	}
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	tr := &Transcript{
		RunID: "run-1",
		Metadata: Meta{
			RunID:     "run-1",
			TicketID:  "tk-9",
			Status:    RunStatusCompleted,
			StartedAt: time.Now().Add(-time.Minute),
			EndedAt:   time.Now(),
		},
		Turns: []Turn{{ID: 1, Role: "user", Content: "hello"}},
	}

	if err := tr.Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(dir, "run-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Metadata.TicketID != "tk-9" {
		t.Errorf("TicketID = %q, want %q", got.Metadata.TicketID, "tk-9")
	}
	if len(got.Turns) != 1 || got.Turns[0].Content != "hello" {
		t.Errorf("Turns = %+v, want single hello turn", got.Turns)
	}
}

func TestFindByTicket(t *testing.T) {
	s := newTestStore(t)
	for _, r := range []struct{ id, ticketID string }{
		{"run-1", "tk-1"}, {"run-2", "tk-2"}, {"run-3", "tk-1"},
	} {
		if err := s.StartRun(r.id, RunMetadata{TicketID: r.ticketID}); err != nil {
			t.Fatalf("StartRun(%q) error = %v", r.id, err)
		}
		if err := s.EndRun(r.id, RunStatusCompleted); err != nil {
			t.Fatalf("EndRun(%q) error = %v", r.id, err)
		}
	}

	searcher := NewSearcher(s)
	metas, err := searcher.FindByTicket("tk-1")
	if err != nil {
		t.Fatalf("FindByTicket() error = %v", err)
	}
	if len(metas) != 2 {
		t.Errorf("len(FindByTicket()) = %d, want 2", len(metas))
	}
	for _, m := range metas {
		if m.TicketID != "tk-1" {
			t.Errorf("TicketID = %q, want %q", m.TicketID, "tk-1")
		}
	}
}

func TestDuration(t *testing.T) {
	start := time.Now().Add(-90 * time.Second)
	tr := &Transcript{Metadata: Meta{StartedAt: start, EndedAt: start.Add(time.Minute)}}
	if got := tr.Duration(); got != time.Minute {
		t.Errorf("Duration() = %s, want %s", got, time.Minute)
	}
}

func TestStoreLayout(t *testing.T) {
	s := newTestStore(t)
	if err := s.StartRun("run-1", RunMetadata{TicketID: "tk-1"}); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	if err := s.EndRun("run-1", RunStatusCompleted); err != nil {
		t.Fatalf("EndRun() error = %v", err)
	}

	for _, f := range []string{"metadata.json", "transcript.json"} {
		path := filepath.Join(s.BaseDir(), "runs", "run-1", f)
		if _, err := Load(s.BaseDir(), "run-1"); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !fileExists(path) {
			t.Errorf("missing %s", path)
		}
	}
}
