package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/morten-olsen/aura/reasoning"
	"github.com/morten-olsen/aura/ticket"
	"github.com/morten-olsen/aura/tools"
)

// executePhase works on exactly one step, state.CurrentStepIndex. Tool calls
// run synchronously in emitted order with their results appended to history;
// a tool-free response completes the step and hands off to review.
func (e *Engine) executePhase(ctx context.Context, in *State) *State {
	s := in.Clone()

	step := s.Plan.Step(s.CurrentStepIndex)
	if step == nil {
		return s.fail(fmt.Errorf("step index %d out of range (plan has %d steps)",
			s.CurrentStepIndex, s.Plan.Len()))
	}

	// Mark the step started exactly once. A repeated call for the same
	// in-progress step must not overwrite StartedAt.
	if step.Status == ticket.StepPending {
		now := time.Now()
		step.Status = ticket.StepInProgress
		step.StartedAt = &now
		s.appendMessage(reasoning.Message{
			Role:    reasoning.RoleUser,
			Content: stepPrompt(s.Plan, s.CurrentStepIndex),
		})
	}

	resp, err := e.completeWithTools(ctx, s, e.systemPrompt(promptExecuteSystem, defaultExecuteSystem))
	if err != nil {
		return s.fail(fmt.Errorf("step %d execution: %w", s.CurrentStepIndex, err))
	}
	s.appendMessage(reasoning.Message{
		Role:    reasoning.RoleAssistant,
		Content: resp.Content,
	})

	if len(resp.ToolCalls) > 0 {
		// Synchronous, in order. Failures become history entries via the
		// tool boundary; they never abort the step.
		for _, call := range resp.ToolCalls {
			result := tools.Execute(ctx, e.registry, call)
			s.appendMessage(reasoning.Message{
				Role:       reasoning.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
		s.Phase = PhaseExecuting
		return s
	}

	if strings.HasPrefix(strings.TrimSpace(resp.Content), QuestionPrefix) {
		// Blocked on a human answer; the step stays in progress and
		// resumes where it left off once the answer arrives.
		s.Phase = PhaseWaiting
		s.WaitingFor = WaitAnswer
		e.logger.Info("step suspended on question",
			"ticket", s.TicketID, "step", step.Index)
		return s
	}

	now := time.Now()
	step.Status = ticket.StepCompleted
	step.Output = resp.Content
	step.CompletedAt = &now
	s.CurrentStepIndex++
	s.Phase = PhaseReviewing

	e.logger.Debug("step completed",
		"ticket", s.TicketID, "step", step.Index, "title", step.Title)
	return s
}
