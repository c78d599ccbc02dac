package ticket

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	aerrors "github.com/morten-olsen/aura/errors"
)

// =============================================================================
// Status Lifecycle
// =============================================================================

// Status represents the user-facing lifecycle state of a ticket.
type Status string

// Ticket status constants.
const (
	StatusDraft           Status = "draft"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusInProgress      Status = "in_progress"
	StatusAwaitingInput   Status = "awaiting_input"
	StatusPaused          Status = "paused"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
	StatusCancelled       Status = "cancelled"
)

// allowedTransitions is the exhaustive edge table for ticket statuses.
var allowedTransitions = map[Status][]Status{
	StatusDraft:           {StatusPendingApproval, StatusCancelled},
	StatusPendingApproval: {StatusApproved, StatusDraft, StatusCancelled},
	StatusApproved:        {StatusInProgress, StatusCancelled},
	StatusInProgress:      {StatusAwaitingInput, StatusPaused, StatusCompleted, StatusFailed, StatusCancelled},
	StatusAwaitingInput:   {StatusInProgress, StatusPaused, StatusCancelled},
	StatusPaused:          {StatusInProgress, StatusCancelled},
	StatusCompleted:       {},
	StatusFailed:          {StatusDraft},
	StatusCancelled:       {StatusDraft},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status resolves the ticket.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Valid reports whether the status is a known value.
func (s Status) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// =============================================================================
// Priority
// =============================================================================

// Priority indicates ticket urgency.
type Priority string

// Priority constants.
const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// =============================================================================
// Token Accounting
// =============================================================================

// TokenUsage tracks accumulated token consumption for a ticket.
// Values only ever grow; Add is the sole mutator.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// Add accumulates another usage sample.
func (u *TokenUsage) Add(other TokenUsage) {
	u.Input += other.Input
	u.Output += other.Output
	u.Total += other.Total
}

// =============================================================================
// Human Checkpoints
// =============================================================================

// Approval represents a pending or resolved plan-approval request.
type Approval struct {
	ID          string     `json:"id"`
	Reason      string     `json:"reason,omitempty"`
	RequestedAt time.Time  `json:"requestedAt"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
	Approved    *bool      `json:"approved,omitempty"`
	ApprovedBy  string     `json:"approvedBy,omitempty"`
}

// Question represents a pending or answered question from the agent.
type Question struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	AskedAt    time.Time  `json:"askedAt"`
	Answer     string     `json:"answer,omitempty"`
	AnsweredAt *time.Time `json:"answeredAt,omitempty"`
}

// =============================================================================
// Ticket
// =============================================================================

// Ticket is the user-facing unit of agent work. It owns status, budgets, the
// plan, and any pending human checkpoint. Only the lifecycle controller
// writes it; the workflow engine never touches it directly.
type Ticket struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority,omitempty"`

	// Provenance, set when the ticket was imported from an external tracker.
	Source    string   `json:"source,omitempty"`    // "github", "gitlab", "jira"
	SourceRef string   `json:"sourceRef,omitempty"` // e.g. "owner/repo#123", "PROJ-42"
	Labels    []string `json:"labels,omitempty"`

	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`

	Plan *Plan `json:"plan,omitempty"`

	CurrentTurn int        `json:"currentTurn"`
	MaxTurns    int        `json:"maxTurns"`
	Tokens      TokenUsage `json:"tokenUsage"`

	PendingApproval *Approval `json:"pendingApproval,omitempty"`
	PendingQuestion *Question `json:"pendingQuestion,omitempty"`

	WorkingBranch string   `json:"workingBranch,omitempty"`
	Commits       []string `json:"commits,omitempty"`
}

// DefaultMaxTurns is the turn budget applied when none is configured.
const DefaultMaxTurns = 25

// New creates a draft ticket with a generated ID.
func New(title, description string) *Ticket {
	now := time.Now()
	return &Ticket{
		ID:          generateTicketID(),
		Title:       title,
		Description: description,
		Status:      StatusDraft,
		Priority:    PriorityMedium,
		CreatedAt:   now,
		UpdatedAt:   now,
		MaxTurns:    DefaultMaxTurns,
	}
}

// Transition moves the ticket to target if the edge table allows it.
// ResolvedAt is stamped exactly for terminal statuses and cleared when a
// failed or cancelled ticket is reopened to draft.
func (t *Ticket) Transition(target Status) error {
	if !target.Valid() {
		return aerrors.NewValidation("status", fmt.Sprintf("unknown status %q", target))
	}
	if !CanTransition(t.Status, target) {
		return &aerrors.InvalidTransitionError{From: string(t.Status), To: string(target)}
	}

	now := time.Now()
	t.Status = target
	t.UpdatedAt = now
	if target.IsTerminal() {
		t.ResolvedAt = &now
	} else {
		t.ResolvedAt = nil
	}
	return nil
}

// AddTokens accumulates token usage on the ticket.
func (t *Ticket) AddTokens(usage TokenUsage) {
	t.Tokens.Add(usage)
}

// Clone returns a deep copy so stores never hand out aliased state.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	out := *t
	if t.ResolvedAt != nil {
		resolved := *t.ResolvedAt
		out.ResolvedAt = &resolved
	}
	out.Plan = t.Plan.Clone()
	if t.Labels != nil {
		out.Labels = append([]string(nil), t.Labels...)
	}
	if t.PendingApproval != nil {
		approval := *t.PendingApproval
		if t.PendingApproval.RespondedAt != nil {
			at := *t.PendingApproval.RespondedAt
			approval.RespondedAt = &at
		}
		if t.PendingApproval.Approved != nil {
			v := *t.PendingApproval.Approved
			approval.Approved = &v
		}
		out.PendingApproval = &approval
	}
	if t.PendingQuestion != nil {
		question := *t.PendingQuestion
		if t.PendingQuestion.AnsweredAt != nil {
			at := *t.PendingQuestion.AnsweredAt
			question.AnsweredAt = &at
		}
		out.PendingQuestion = &question
	}
	if t.Commits != nil {
		out.Commits = append([]string(nil), t.Commits...)
	}
	return &out
}

// Summary returns a human-readable one-liner for logs.
func (t *Ticket) Summary() string {
	return fmt.Sprintf("Ticket %s [%s]: %s (turn %d/%d, tokens: %d in, %d out)",
		t.ID, t.Status, t.Title,
		t.CurrentTurn, t.MaxTurns,
		t.Tokens.Input, t.Tokens.Output)
}

// generateTicketID creates a date-prefixed unique ticket ID.
func generateTicketID() string {
	return fmt.Sprintf("%s-%s", time.Now().Format("2006-01-02"), randomSuffix(4))
}

// randomSuffix generates a random hex suffix.
func randomSuffix(bytes int) string {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		// Fallback to timestamp-based suffix on entropy failure
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
