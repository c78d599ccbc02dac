package checkpoint

import (
	"context"
	"encoding/json"
	"testing"
)

type storeFactory func(t *testing.T) Store

func runStoreTests(t *testing.T, factory storeFactory) {
	ctx := context.Background()
	snap := func(s string) json.RawMessage { return json.RawMessage(`{"phase":"` + s + `"}`) }

	t.Run("put assigns id", func(t *testing.T) {
		store := factory(t)

		id, err := store.Put(ctx, PutRequest{TicketID: "tk1", Snapshot: snap("planning")})
		if err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if id == "" {
			t.Fatal("Put() returned empty id")
		}

		cp, err := store.Latest(ctx, "tk1", "")
		if err != nil {
			t.Fatalf("Latest() error = %v", err)
		}
		if cp.ID != id {
			t.Errorf("Latest().ID = %q, want %q", cp.ID, id)
		}
		if cp.ParentID != "" {
			t.Errorf("root ParentID = %q, want empty", cp.ParentID)
		}
	})

	t.Run("put is idempotent upsert", func(t *testing.T) {
		store := factory(t)

		id, err := store.Put(ctx, PutRequest{TicketID: "tk1", ID: "cp1", Snapshot: snap("one")})
		if err != nil {
			t.Fatalf("first Put() error = %v", err)
		}
		if _, err := store.Put(ctx, PutRequest{TicketID: "tk1", ID: "cp1", Snapshot: snap("two")}); err != nil {
			t.Fatalf("second Put() error = %v", err)
		}

		// Exactly one row, reflecting the second write.
		all, err := store.List(ctx, "tk1", "", 0)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(all) != 1 {
			t.Fatalf("len(List()) = %d, want 1", len(all))
		}
		cp, err := store.Latest(ctx, "tk1", id)
		if err != nil {
			t.Fatalf("Latest() error = %v", err)
		}
		if string(cp.Snapshot) != `{"phase":"two"}` {
			t.Errorf("Snapshot = %s, want second write", cp.Snapshot)
		}
	})

	t.Run("latest picks newest", func(t *testing.T) {
		store := factory(t)

		first, _ := store.Put(ctx, PutRequest{TicketID: "tk1", Snapshot: snap("one")})
		second, err := store.Put(ctx, PutRequest{TicketID: "tk1", ParentID: first, Snapshot: snap("two")})
		if err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		cp, err := store.Latest(ctx, "tk1", "")
		if err != nil {
			t.Fatalf("Latest() error = %v", err)
		}
		if cp.ID != second {
			t.Errorf("Latest().ID = %q, want %q", cp.ID, second)
		}
		if cp.ParentID != first {
			t.Errorf("ParentID = %q, want %q", cp.ParentID, first)
		}
	})

	t.Run("latest not found", func(t *testing.T) {
		store := factory(t)

		if _, err := store.Latest(ctx, "missing", ""); err != ErrNotFound {
			t.Errorf("Latest() error = %v, want ErrNotFound", err)
		}
		store.Put(ctx, PutRequest{TicketID: "tk1", Snapshot: snap("one")})
		if _, err := store.Latest(ctx, "tk1", "nope"); err != ErrNotFound {
			t.Errorf("Latest(id) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("list newest first with limit and before", func(t *testing.T) {
		store := factory(t)

		var ids []string
		parent := ""
		for i := 0; i < 3; i++ {
			id, err := store.Put(ctx, PutRequest{TicketID: "tk1", ParentID: parent, Snapshot: snap("s")})
			if err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			ids = append(ids, id)
			parent = id
		}

		all, err := store.List(ctx, "tk1", "", 0)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("len(List()) = %d, want 3", len(all))
		}
		if all[0].ID != ids[2] || all[2].ID != ids[0] {
			t.Error("List() should be newest first")
		}

		limited, _ := store.List(ctx, "tk1", "", 2)
		if len(limited) != 2 {
			t.Errorf("len(List(limit=2)) = %d, want 2", len(limited))
		}

		older, err := store.List(ctx, "tk1", ids[2], 0)
		if err != nil {
			t.Fatalf("List(before) error = %v", err)
		}
		if len(older) != 2 {
			t.Fatalf("len(List(before)) = %d, want 2", len(older))
		}
		if older[0].ID != ids[1] {
			t.Errorf("List(before)[0].ID = %q, want %q", older[0].ID, ids[1])
		}
	})

	t.Run("append pending writes", func(t *testing.T) {
		store := factory(t)

		id, _ := store.Put(ctx, PutRequest{TicketID: "tk1", Snapshot: snap("one")})
		err := store.AppendPendingWrites(ctx, "tk1", id, "task-1", []json.RawMessage{
			json.RawMessage(`{"result":"ok"}`),
		})
		if err != nil {
			t.Fatalf("AppendPendingWrites() error = %v", err)
		}

		cp, _ := store.Latest(ctx, "tk1", id)
		if len(cp.PendingWrites) != 1 {
			t.Fatalf("len(PendingWrites) = %d, want 1", len(cp.PendingWrites))
		}
		if cp.PendingWrites[0].TaskID != "task-1" {
			t.Errorf("TaskID = %q, want %q", cp.PendingWrites[0].TaskID, "task-1")
		}
	})

	t.Run("append pending writes missing checkpoint", func(t *testing.T) {
		store := factory(t)

		err := store.AppendPendingWrites(ctx, "tk1", "nope", "task-1", []json.RawMessage{
			json.RawMessage(`{}`),
		})
		if err != ErrNotFound {
			t.Errorf("AppendPendingWrites() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("delete all", func(t *testing.T) {
		store := factory(t)

		store.Put(ctx, PutRequest{TicketID: "tk1", Snapshot: snap("one")})
		store.Put(ctx, PutRequest{TicketID: "tk1", Snapshot: snap("two")})

		if err := store.DeleteAll(ctx, "tk1"); err != nil {
			t.Fatalf("DeleteAll() error = %v", err)
		}
		if _, err := store.Latest(ctx, "tk1", ""); err != ErrNotFound {
			t.Errorf("Latest() after DeleteAll error = %v, want ErrNotFound", err)
		}
		// Deleting an absent chain is a no-op, not an error.
		if err := store.DeleteAll(ctx, "tk1"); err != nil {
			t.Errorf("second DeleteAll() error = %v", err)
		}
	})

	t.Run("missing snapshot rejected", func(t *testing.T) {
		store := factory(t)

		if _, err := store.Put(ctx, PutRequest{TicketID: "tk1"}); err == nil {
			t.Error("Put() without snapshot should fail")
		}
		if _, err := store.Put(ctx, PutRequest{Snapshot: snap("x")}); err == nil {
			t.Error("Put() without ticket id should fail")
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestFileStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store {
		store, err := NewFileStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewFileStore() error = %v", err)
		}
		return store
	})
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	id, err := store.Put(ctx, PutRequest{TicketID: "tk1", Snapshot: json.RawMessage(`{"phase":"waiting"}`)})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// A fresh store over the same directory must recover the snapshot.
	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() reopen error = %v", err)
	}
	cp, err := reopened.Latest(ctx, "tk1", "")
	if err != nil {
		t.Fatalf("Latest() after reopen error = %v", err)
	}
	if cp.ID != id {
		t.Errorf("ID = %q, want %q", cp.ID, id)
	}
	if string(cp.Snapshot) != `{"phase":"waiting"}` {
		t.Errorf("Snapshot = %s, want original", cp.Snapshot)
	}
}
