package ticket

import (
	"time"

	aerrors "github.com/morten-olsen/aura/errors"
)

// StepStatus represents the execution state of a single plan step.
type StepStatus string

// Step status constants.
const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
	StepSkipped    StepStatus = "skipped"
)

// DefaultStepMaxRetries is the per-step retry budget applied at plan creation.
const DefaultStepMaxRetries = 3

// Step is one unit of planned work. Index is assigned at plan creation and
// never changes; steps are never reordered.
type Step struct {
	ID          string     `json:"id"`
	Index       int        `json:"index"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      StepStatus `json:"status"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Output      string     `json:"output,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retryCount"`
	MaxRetries  int        `json:"maxRetries"`
}

// Plan is the ordered list of steps the reasoning engine produced for a
// ticket. ApprovedAt/ApprovedBy stay empty until a human approves it.
type Plan struct {
	Version     int        `json:"version"`
	Summary     string     `json:"summary"`
	Steps       []Step     `json:"steps"`
	GeneratedAt time.Time  `json:"generatedAt"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	ApprovedBy  string     `json:"approvedBy,omitempty"`
}

// Approved reports whether the plan has been approved.
func (p *Plan) Approved() bool {
	return p != nil && p.ApprovedAt != nil
}

// Approve stamps the plan as approved by the given identity.
func (p *Plan) Approve(by string) {
	now := time.Now()
	p.ApprovedAt = &now
	p.ApprovedBy = by
}

// Len returns the number of steps.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Steps)
}

// Step returns the step at index, or nil if out of range.
func (p *Plan) Step(index int) *Step {
	if p == nil || index < 0 || index >= len(p.Steps) {
		return nil
	}
	return &p.Steps[index]
}

// InProgressStep returns the single in-progress step, or nil. At most one
// step may be in progress at any time.
func (p *Plan) InProgressStep() *Step {
	if p == nil {
		return nil
	}
	for i := range p.Steps {
		if p.Steps[i].Status == StepInProgress {
			return &p.Steps[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	out := *p
	if p.ApprovedAt != nil {
		at := *p.ApprovedAt
		out.ApprovedAt = &at
	}
	out.Steps = make([]Step, len(p.Steps))
	for i, s := range p.Steps {
		cs := s
		if s.StartedAt != nil {
			at := *s.StartedAt
			cs.StartedAt = &at
		}
		if s.CompletedAt != nil {
			at := *s.CompletedAt
			cs.CompletedAt = &at
		}
		out.Steps[i] = cs
	}
	return &out
}

// StepPatch carries partial step fields for UpdatePlanStep. Nil fields are
// left untouched.
type StepPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *StepStatus `json:"status,omitempty"`
	Output      *string     `json:"output,omitempty"`
	Error       *string     `json:"error,omitempty"`
	RetryCount  *int        `json:"retryCount,omitempty"`
	MaxRetries  *int        `json:"maxRetries,omitempty"`
}

// ApplyStepPatch merges patch fields into the step at index.
// Returns ErrNoPlan when the ticket has no plan and a validation error when
// the index is out of range.
func (t *Ticket) ApplyStepPatch(index int, patch StepPatch) error {
	if t.Plan == nil {
		return aerrors.ErrNoPlan
	}
	step := t.Plan.Step(index)
	if step == nil {
		return aerrors.NewValidation("index", "step index out of range")
	}

	if patch.Title != nil {
		step.Title = *patch.Title
	}
	if patch.Description != nil {
		step.Description = *patch.Description
	}
	if patch.Status != nil {
		step.Status = *patch.Status
	}
	if patch.Output != nil {
		step.Output = *patch.Output
	}
	if patch.Error != nil {
		step.Error = *patch.Error
	}
	if patch.RetryCount != nil {
		step.RetryCount = *patch.RetryCount
	}
	if patch.MaxRetries != nil {
		step.MaxRetries = *patch.MaxRetries
	}
	t.UpdatedAt = time.Now()
	return nil
}
