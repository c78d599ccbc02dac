package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound indicates the requested checkpoint (or ticket chain) is absent.
var ErrNotFound = errors.New("checkpoint not found")

// PutRequest describes one checkpoint write. An empty ID asks the store to
// assign a fresh one; a populated ID upserts the existing row (last write
// wins, no duplicate rows).
type PutRequest struct {
	TicketID string
	ID       string
	ParentID string
	Snapshot json.RawMessage
	Metadata Metadata
}

// Store persists workflow snapshots. Once Put returns, the snapshot must be
// atomically and durably recoverable across process restarts.
type Store interface {
	// Put upserts a checkpoint and returns its ID.
	Put(ctx context.Context, req PutRequest) (string, error)

	// Latest returns the checkpoint with the given ID, or the most recently
	// created checkpoint for the ticket when checkpointID is empty.
	Latest(ctx context.Context, ticketID, checkpointID string) (*Checkpoint, error)

	// List returns checkpoints for a ticket newest-first. A non-empty before
	// restricts results to checkpoints created before that checkpoint ID;
	// limit <= 0 means no limit.
	List(ctx context.Context, ticketID, before string, limit int) ([]*Checkpoint, error)

	// AppendPendingWrites attaches uncommitted side effects to an existing
	// checkpoint. Fails with ErrNotFound if the checkpoint is absent.
	AppendPendingWrites(ctx context.Context, ticketID, checkpointID, taskID string, writes []json.RawMessage) error

	// DeleteAll irreversibly removes every checkpoint for a ticket.
	DeleteAll(ctx context.Context, ticketID string) error
}
