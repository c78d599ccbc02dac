package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/morten-olsen/aura/checkpoint"
	aerrors "github.com/morten-olsen/aura/errors"
	"github.com/morten-olsen/aura/prompt"
	"github.com/morten-olsen/aura/reasoning"
	"github.com/morten-olsen/aura/ticket"
	"github.com/morten-olsen/aura/tools"
)

// DefaultMaxPhaseCalls caps phase executions within one engine invocation.
// Hitting the cap suspends the run; it resumes from the checkpoint on the
// next invocation.
const DefaultMaxPhaseCalls = 50

// Engine drives a workflow through its phases. Each phase is a pure function
// of the current state; a router picks the next phase after every call and a
// checkpoint is written after every call.
type Engine struct {
	client        reasoning.Client
	checkpoints   checkpoint.Store
	registry      *tools.Registry
	prompts       *prompt.Loader
	logger        *slog.Logger
	modelFor      func(Phase) string
	maxPhaseCalls int
}

// Option configures an Engine.
type Option func(*Engine)

// WithTools sets the tool registry offered during the executing phase.
func WithTools(reg *tools.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithPrompts sets the prompt loader used for phase system prompts.
func WithPrompts(loader *prompt.Loader) Option {
	return func(e *Engine) {
		e.prompts = loader
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithModelFunc sets the per-phase model selector. An empty return value
// uses the reasoning client's default model.
func WithModelFunc(fn func(Phase) string) Option {
	return func(e *Engine) {
		e.modelFor = fn
	}
}

// WithMaxPhaseCalls overrides the per-invocation phase cap.
func WithMaxPhaseCalls(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxPhaseCalls = n
		}
	}
}

// NewEngine creates a workflow engine.
func NewEngine(client reasoning.Client, store checkpoint.Store, opts ...Option) *Engine {
	e := &Engine{
		client:        client,
		checkpoints:   store,
		registry:      tools.NewRegistry(),
		logger:        slog.Default(),
		modelFor:      func(Phase) string { return "" },
		maxPhaseCalls: DefaultMaxPhaseCalls,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of one engine invocation.
type Result struct {
	// State is the final workflow state, suspended or completed.
	State *State

	// Usage is the token consumption of this invocation only; State.Tokens
	// carries the lifetime total.
	Usage ticket.TokenUsage

	// CheckpointID identifies the checkpoint written by this invocation.
	CheckpointID string
}

// entryPhase routes a resumed state to the right phase. Routing inspects
// the persisted state rather than always starting at planning; this is what
// makes exact resumption after a crash possible.
func entryPhase(s *State) Phase {
	if s.Plan != nil && (s.Phase == PhaseWaiting || s.WaitingFor != WaitNone) {
		return PhaseWaiting
	}
	switch s.Phase {
	case PhaseExecuting, PhaseReviewing:
		return PhaseExecuting
	case PhaseCompleted:
		return PhaseCompleted
	}
	return PhasePlanning
}

// Run drives the given state until the workflow completes or suspends.
// Engine-internal failures (plan parse errors, rejected approvals, reasoning
// errors) end up as phase=completed with State.Err set; only infrastructure
// failures (checkpointing, context cancellation) are returned as errors.
func (e *Engine) Run(ctx context.Context, s *State) (*Result, error) {
	if s == nil || s.TicketID == "" {
		return nil, fmt.Errorf("workflow state requires a ticket id")
	}

	// One checkpoint per invocation: every phase call upserts the same
	// (ticketID, checkpointID) pair, parented on the previous invocation.
	cpID := checkpoint.NewID()
	parentID := ""
	if latest, err := e.checkpoints.Latest(ctx, s.TicketID, ""); err == nil {
		parentID = latest.ID
	}

	before := s.Tokens
	cur := entryPhase(s)
	if cur == PhaseCompleted {
		return e.result(s, before, ""), nil
	}
	e.logger.Debug("workflow run starting",
		"ticket", s.TicketID, "entry", string(cur))

	for calls := 0; calls < e.maxPhaseCalls; calls++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var next *State
		switch cur {
		case PhasePlanning:
			next = e.planPhase(ctx, s)
		case PhaseExecuting:
			next = e.executePhase(ctx, s)
		case PhaseReviewing:
			next = e.reviewPhase(ctx, s)
		case PhaseWaiting:
			next = waitPhase(s)
		default:
			return nil, fmt.Errorf("unknown phase %q", cur)
		}

		if err := e.persist(ctx, next, cpID, parentID); err != nil {
			return nil, err
		}
		e.logger.Debug("phase executed",
			"ticket", s.TicketID, "phase", string(cur), "next", string(next.Phase))

		// A wait that stays waiting made no progress; exit rather than
		// re-invoke the wait phase in the same call.
		if next.Phase == PhaseWaiting && (cur == PhaseWaiting || next.Input == nil) {
			return e.result(next, before, cpID), nil
		}
		if next.Phase == PhaseCompleted {
			return e.result(next, before, cpID), nil
		}

		s = next
		cur = next.Phase
	}

	// Phase budget exhausted: suspend where we are, resumable from the
	// checkpoint written above.
	return e.result(s, before, cpID), nil
}

// Resume loads the latest checkpoint for a ticket, attaches the human input,
// and runs. Returns checkpoint.ErrNotFound when the ticket has no persisted
// workflow.
func (e *Engine) Resume(ctx context.Context, ticketID string, input *HumanInput) (*Result, error) {
	s, err := e.loadLatest(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	s.Input = input
	return e.Run(ctx, s)
}

// ResumeFromApprovedPlan resumes a ticket whose plan was approved out of
// band. It is the explicit entry point for that transition; callers never
// need to fabricate waiting-state internals to force the routing.
func (e *Engine) ResumeFromApprovedPlan(ctx context.Context, ticketID, approvedBy string) (*Result, error) {
	s, err := e.loadLatest(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if s.Plan == nil {
		return nil, aerrors.ErrNoPlan
	}
	s.Phase = PhaseWaiting
	s.WaitingFor = WaitApproval
	s.Input = &HumanInput{Type: InputApproval, Approved: true, ApprovedBy: approvedBy}
	return e.Run(ctx, s)
}

// Latest returns the most recently checkpointed state for a ticket.
func (e *Engine) Latest(ctx context.Context, ticketID string) (*State, error) {
	return e.loadLatest(ctx, ticketID)
}

func (e *Engine) loadLatest(ctx context.Context, ticketID string) (*State, error) {
	cp, err := e.checkpoints.Latest(ctx, ticketID, "")
	if err != nil {
		return nil, err
	}
	return RestoreState(cp.Snapshot)
}

// persist checkpoints the state. Re-entrant calls for the same invocation
// upsert the same row; they never duplicate checkpoints.
func (e *Engine) persist(ctx context.Context, s *State, cpID, parentID string) error {
	snapshot, err := s.Snapshot()
	if err != nil {
		return err
	}
	_, err = e.checkpoints.Put(ctx, checkpoint.PutRequest{
		TicketID: s.TicketID,
		ID:       cpID,
		ParentID: parentID,
		Snapshot: snapshot,
		Metadata: checkpoint.Metadata{
			Phase:  string(s.Phase),
			Source: "engine",
		},
	})
	if err != nil {
		return fmt.Errorf("checkpoint workflow state: %w", err)
	}
	return nil
}

func (e *Engine) result(s *State, before ticket.TokenUsage, cpID string) *Result {
	return &Result{
		State: s,
		Usage: ticket.TokenUsage{
			Input:  s.Tokens.Input - before.Input,
			Output: s.Tokens.Output - before.Output,
			Total:  s.Tokens.Total - before.Total,
		},
		CheckpointID: cpID,
	}
}

// complete calls the reasoning engine without tools, accumulating usage.
func (e *Engine) complete(ctx context.Context, s *State, system string, phase Phase) (*reasoning.Response, error) {
	resp, err := e.client.Complete(ctx, reasoning.Request{
		System:   system,
		Messages: s.History,
		Model:    e.modelFor(phase),
	})
	if err != nil {
		return nil, err
	}
	s.Tokens.Add(ticket.TokenUsage(resp.Usage))
	return resp, nil
}

// completeWithTools calls the reasoning engine offering the registry's tools.
func (e *Engine) completeWithTools(ctx context.Context, s *State, system string) (*reasoning.Response, error) {
	resp, err := e.client.CompleteWithTools(ctx, reasoning.Request{
		System:   system,
		Messages: s.History,
		Model:    e.modelFor(PhaseExecuting),
	}, e.registry.Defs())
	if err != nil {
		return nil, err
	}
	s.Tokens.Add(ticket.TokenUsage(resp.Usage))
	return resp, nil
}
