package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	aerrors "github.com/morten-olsen/aura/errors"
	"github.com/morten-olsen/aura/reasoning"
	"github.com/morten-olsen/aura/ticket"
)

// planResponse is the strict JSON shape the planning phase requires.
type planResponse struct {
	Summary string `json:"summary"`
	Steps   []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"steps"`
}

// planPhase asks the reasoning engine for a plan and decides whether the
// workflow proceeds to execution or suspends for approval. Re-entering with
// a plan already present never regenerates it.
func (e *Engine) planPhase(ctx context.Context, in *State) *State {
	s := in.Clone()

	// Idempotent across re-entry: a plan is generated exactly once.
	if s.Plan != nil {
		return e.routeAfterPlan(s)
	}

	s.appendMessage(reasoning.Message{
		Role:    reasoning.RoleUser,
		Content: planRequestPrompt(s.Title, s.Description),
	})

	resp, err := e.complete(ctx, s, e.systemPrompt(promptPlanSystem, defaultPlanSystem), PhasePlanning)
	if err != nil {
		return s.fail(fmt.Errorf("plan generation: %w", err))
	}
	s.appendMessage(reasoning.Message{
		Role:    reasoning.RoleAssistant,
		Content: resp.Content,
	})

	plan, err := parsePlan(resp.Content)
	if err != nil {
		// Non-retryable for this run; the caller may retry within the
		// ticket's turn budget.
		return s.fail(&aerrors.PlanParseError{Err: err})
	}

	s.Plan = plan
	e.logger.Info("plan generated",
		"ticket", s.TicketID, "steps", plan.Len())
	return e.routeAfterPlan(s)
}

// routeAfterPlan applies the post-planning decision: suspend for approval
// or start executing at the first step.
func (e *Engine) routeAfterPlan(s *State) *State {
	if s.PlanApprovalRequired && !s.Plan.Approved() {
		s.Phase = PhaseWaiting
		s.WaitingFor = WaitApproval
		return s
	}
	s.Phase = PhaseExecuting
	s.CurrentStepIndex = 0
	return s
}

// parsePlan decodes the strict plan JSON, tolerating surrounding code
// fences. Anything else is a PlanParseError.
func parsePlan(content string) (*ticket.Plan, error) {
	text := strings.TrimSpace(content)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var parsed planResponse
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Steps) == 0 {
		return nil, fmt.Errorf("plan has no steps")
	}

	plan := &ticket.Plan{
		Version:     1,
		Summary:     parsed.Summary,
		Steps:       make([]ticket.Step, len(parsed.Steps)),
		GeneratedAt: time.Now(),
	}
	for i, raw := range parsed.Steps {
		plan.Steps[i] = ticket.Step{
			ID:          newStepID(),
			Index:       i,
			Title:       raw.Title,
			Description: raw.Description,
			Status:      ticket.StepPending,
			MaxRetries:  ticket.DefaultStepMaxRetries,
		}
	}
	return plan, nil
}

func newStepID() string {
	id, err := gonanoid.New(12)
	if err != nil {
		return fmt.Sprintf("step-%d", time.Now().UnixNano())
	}
	return "step-" + id
}
