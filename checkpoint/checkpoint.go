package checkpoint

import (
	"encoding/json"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Checkpoint is a durable, addressable snapshot of workflow state. Identity
// is the (TicketID, ID) pair; checkpoints for one ticket form a chain through
// ParentID, with a nil parent only at the root.
type Checkpoint struct {
	TicketID string `json:"ticketId"`
	ID       string `json:"id"`
	ParentID string `json:"parentId,omitempty"`

	// Seq orders checkpoints within a ticket; the store assigns it on first
	// write and the highest value is the current checkpoint.
	Seq int64 `json:"seq"`

	// Snapshot is the serialized workflow state. The store treats it as an
	// opaque blob.
	Snapshot json.RawMessage `json:"snapshot"`

	Metadata Metadata `json:"metadata,omitempty"`

	// PendingWrites holds side effects produced after this checkpoint that
	// have not yet been committed into the next one.
	PendingWrites []PendingWrite `json:"pendingWrites,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Metadata carries descriptive fields alongside a snapshot.
type Metadata struct {
	Phase  string            `json:"phase,omitempty"`
	Turn   int               `json:"turn,omitempty"`
	Source string            `json:"source,omitempty"`
	Extra  map[string]string `json:"extra,omitempty"`
}

// PendingWrite is one uncommitted side effect attached to a checkpoint.
type PendingWrite struct {
	TaskID string          `json:"taskId"`
	Data   json.RawMessage `json:"data"`
	At     time.Time       `json:"at"`
}

// idAlphabet keeps checkpoint IDs filesystem- and URL-safe.
const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID generates an opaque checkpoint ID.
func NewID() string {
	id, err := nanoid.Generate(idAlphabet, 21)
	if err != nil {
		// nanoid only fails on entropy exhaustion; fall back to timestamp.
		return time.Now().UTC().Format("20060102150405.000000000")
	}
	return id
}
