package transcript

import (
	"errors"
	"time"
)

// Transcript errors.
var (
	ErrRunNotFound      = errors.New("run not found")
	ErrRunAlreadyExists = errors.New("run already exists")
	ErrRunNotStarted    = errors.New("run not started")
	ErrRunAlreadyEnded  = errors.New("run already ended")
)

// RunStatus indicates the status of a run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCanceled  RunStatus = "canceled"
)

// Transcript is the complete conversation record of one engine run.
type Transcript struct {
	RunID    string `json:"runId"`
	Metadata Meta   `json:"metadata"`
	Turns    []Turn `json:"turns"`
}

// Duration reports how long the run took, or how long it has been
// running for runs that have not ended.
func (t *Transcript) Duration() time.Duration {
	if t.Metadata.EndedAt.IsZero() {
		return time.Since(t.Metadata.StartedAt)
	}
	return t.Metadata.EndedAt.Sub(t.Metadata.StartedAt)
}

// Meta contains run metadata.
type Meta struct {
	RunID          string    `json:"runId,omitempty"`
	TicketID       string    `json:"ticketId"`
	Phase          string    `json:"phase,omitempty"`
	Input          string    `json:"input,omitempty"`
	StartedAt      time.Time `json:"startedAt"`
	EndedAt        time.Time `json:"endedAt,omitempty"`
	Status         RunStatus `json:"status"`
	TotalTokensIn  int       `json:"totalTokensIn"`
	TotalTokensOut int       `json:"totalTokensOut"`
	TurnCount      int       `json:"turnCount"`
	Error          string    `json:"error,omitempty"`
}

// Turn represents a conversation turn.
type Turn struct {
	ID         int        `json:"id"`
	Role       string     `json:"role"` // system, user, assistant, tool
	Content    string     `json:"content"`
	TokensIn   int        `json:"tokensIn,omitempty"`
	TokensOut  int        `json:"tokensOut,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	DurationMs int64      `json:"durationMs,omitempty"`
}

// ToolCall represents a tool invocation within a turn.
type ToolCall struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Input  string `json:"input,omitempty"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// RunMetadata is input for starting a new run.
type RunMetadata struct {
	TicketID string
	Phase    string
	Input    string
}
