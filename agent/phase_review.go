package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/morten-olsen/aura/reasoning"
)

// reviewPhase decides whether the workflow is done. With steps remaining it
// routes straight back to executing without a reasoning call; once every
// step has run it asks the reasoning engine to certify completion.
func (e *Engine) reviewPhase(ctx context.Context, in *State) *State {
	s := in.Clone()

	if s.CurrentStepIndex < s.Plan.Len() {
		s.Phase = PhaseExecuting
		return s
	}

	s.appendMessage(reasoning.Message{
		Role:    reasoning.RoleUser,
		Content: reviewPrompt(s.Plan),
	})

	resp, err := e.complete(ctx, s, e.systemPrompt(promptReviewSystem, defaultReviewSystem), PhaseReviewing)
	if err != nil {
		return s.fail(fmt.Errorf("completion review: %w", err))
	}
	s.appendMessage(reasoning.Message{
		Role:    reasoning.RoleAssistant,
		Content: resp.Content,
	})

	if strings.Contains(resp.Content, CompletionSentinel) {
		s.Phase = PhaseCompleted
		e.logger.Info("workflow certified complete", "ticket", s.TicketID)
		return s
	}

	// The reviewer wants more work. Re-open the last step with the review
	// feedback already in history and let execution iterate on it.
	if s.Plan.Len() > 0 {
		s.CurrentStepIndex = s.Plan.Len() - 1
	}
	s.Phase = PhaseExecuting
	return s
}
