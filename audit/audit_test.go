package audit

import (
	"context"
	"path/filepath"
	"testing"
)

func TestMemoryLog_AppendOrder(t *testing.T) {
	log := NewMemoryLog()
	ctx := context.Background()

	log.Append(ctx, Entry{TicketID: "t1", Action: ActionCreated})
	log.Append(ctx, Entry{TicketID: "t2", Action: ActionCreated})
	log.Append(ctx, Entry{TicketID: "t1", Action: ActionRunStarted})

	all := log.Entries()
	if len(all) != 3 {
		t.Fatalf("entries = %d, want 3", len(all))
	}
	if all[0].Action != ActionCreated || all[2].Action != ActionRunStarted {
		t.Errorf("entries out of order: %v", all)
	}

	mine := log.ForTicket("t1")
	if len(mine) != 2 {
		t.Errorf("t1 entries = %d, want 2", len(mine))
	}
	for _, e := range mine {
		if e.Time.IsZero() {
			t.Error("append should stamp a missing time")
		}
	}
}

func TestFileLog_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "log.jsonl")
	log, err := NewFileLog(path)
	if err != nil {
		t.Fatalf("NewFileLog: %v", err)
	}
	ctx := context.Background()

	entries := []Entry{
		{TicketID: "t1", Actor: "system", Action: ActionCreated},
		{TicketID: "t1", Action: ActionTransition, Detail: "draft -> pending_approval"},
		{TicketID: "t1", Actor: "alice", Action: ActionPlanApproved},
	}
	for _, e := range entries {
		if err := log.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := log.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("entries = %d, want 3", len(got))
	}
	if got[1].Detail != "draft -> pending_approval" {
		t.Errorf("detail = %q, want transition detail", got[1].Detail)
	}
	if got[2].Actor != "alice" {
		t.Errorf("actor = %q, want alice", got[2].Actor)
	}
}

func TestFileLog_ReadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never-written.jsonl")
	log, err := NewFileLog(path)
	if err != nil {
		t.Fatalf("NewFileLog: %v", err)
	}

	got, err := log.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("entries = %d, want 0", len(got))
	}
}
