package agent

import (
	"encoding/json"
	"fmt"

	"github.com/morten-olsen/aura/reasoning"
	"github.com/morten-olsen/aura/ticket"
)

// =============================================================================
// Phases
// =============================================================================

// Phase is the workflow engine's internal state.
type Phase string

const (
	PhasePlanning  Phase = "planning"
	PhaseExecuting Phase = "executing"
	PhaseReviewing Phase = "reviewing"
	PhaseWaiting   Phase = "waiting"
	PhaseCompleted Phase = "completed"
)

// Valid reports whether the phase is a known value.
func (p Phase) Valid() bool {
	switch p {
	case PhasePlanning, PhaseExecuting, PhaseReviewing, PhaseWaiting, PhaseCompleted:
		return true
	}
	return false
}

// WaitKind names what a suspended workflow is waiting for.
type WaitKind string

const (
	WaitNone     WaitKind = ""
	WaitApproval WaitKind = "approval"
	WaitAnswer   WaitKind = "answer"
)

// =============================================================================
// Human input
// =============================================================================

// InputType distinguishes the two kinds of human input a workflow can consume.
type InputType string

const (
	InputApproval InputType = "approval"
	InputAnswer   InputType = "answer"
)

// HumanInput is a human response delivered to a suspended workflow.
type HumanInput struct {
	Type InputType `json:"type"`

	// Approved and ApprovedBy apply to approval input.
	Approved   bool   `json:"approved,omitempty"`
	ApprovedBy string `json:"approvedBy,omitempty"`

	// Reason carries an optional denial explanation.
	Reason string `json:"reason,omitempty"`

	// Answer applies to answer input.
	Answer string `json:"answer,omitempty"`
}

// =============================================================================
// Workflow state
// =============================================================================

// State is everything the workflow engine operates on. It is what gets
// serialized into checkpoints, so every field must round-trip through JSON.
// Phase functions never mutate their input state; they return a replacement.
type State struct {
	TicketID    string `json:"ticketId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// History is the append-only conversation. Tool results appear in the
	// same order the tool calls were requested.
	History []reasoning.Message `json:"history,omitempty"`

	Plan             *ticket.Plan `json:"plan,omitempty"`
	CurrentStepIndex int          `json:"currentStepIndex"`

	Phase      Phase    `json:"phase"`
	WaitingFor WaitKind `json:"waitingFor,omitempty"`

	// Input is the pending human input, consumed by the wait phase.
	Input *HumanInput `json:"input,omitempty"`

	PlanApprovalRequired bool `json:"planApprovalRequired"`

	// Tokens accumulates usage across the whole workflow, never reset.
	Tokens ticket.TokenUsage `json:"tokenUsage"`

	// Err is the terminal error message. A populated Err always comes with
	// phase=completed: even failure is a completed run, never a panic.
	Err string `json:"error,omitempty"`
}

// NewState builds the initial workflow state for a ticket.
func NewState(t *ticket.Ticket, approvalRequired bool) *State {
	return &State{
		TicketID:             t.ID,
		Title:                t.Title,
		Description:          t.Description,
		Plan:                 t.Plan.Clone(),
		Phase:                PhasePlanning,
		PlanApprovalRequired: approvalRequired,
	}
}

// Clone returns a deep copy. Phase functions clone before writing so the
// caller's state is never mutated.
func (s *State) Clone() *State {
	out := *s
	out.History = make([]reasoning.Message, len(s.History))
	copy(out.History, s.History)
	out.Plan = s.Plan.Clone()
	if s.Input != nil {
		in := *s.Input
		out.Input = &in
	}
	return &out
}

// Failed reports whether the state carries a terminal error.
func (s *State) Failed() bool {
	return s.Err != ""
}

// appendMessage returns the state's history with msg added. History is
// append-only; nothing ever rewrites earlier entries.
func (s *State) appendMessage(msg reasoning.Message) {
	s.History = append(s.History, msg)
}

// fail marks the state completed with a terminal error.
func (s *State) fail(err error) *State {
	s.Phase = PhaseCompleted
	s.Err = err.Error()
	return s
}

// Snapshot serializes the state for checkpointing.
func (s *State) Snapshot() (json.RawMessage, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal workflow state: %w", err)
	}
	return data, nil
}

// RestoreState deserializes a checkpointed snapshot.
func RestoreState(snapshot json.RawMessage) (*State, error) {
	var s State
	if err := json.Unmarshal(snapshot, &s); err != nil {
		return nil, fmt.Errorf("unmarshal workflow state: %w", err)
	}
	return &s, nil
}
