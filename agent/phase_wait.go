package agent

import (
	"github.com/morten-olsen/aura/reasoning"
)

// waitPhase is a pure inspector: it never calls the reasoning engine. Human
// input resumes the workflow; absent input it returns the state unchanged,
// which the driver treats as "no progress possible" and exits on.
func waitPhase(in *State) *State {
	if in.Input == nil {
		return in
	}

	s := in.Clone()
	input := *s.Input
	s.Input = nil

	switch input.Type {
	case InputApproval:
		if !input.Approved {
			s.WaitingFor = WaitNone
			s.Phase = PhaseCompleted
			s.Err = "plan rejected"
			if input.Reason != "" {
				s.Err = "plan rejected: " + input.Reason
			}
			return s
		}
		if s.Plan != nil && !s.Plan.Approved() {
			s.Plan.Approve(input.ApprovedBy)
		}
		s.WaitingFor = WaitNone
		s.Phase = PhaseExecuting
		return s

	case InputAnswer:
		s.appendMessage(reasoning.Message{
			Role:    reasoning.RoleUser,
			Content: input.Answer,
		})
		s.WaitingFor = WaitNone
		s.Phase = PhaseExecuting
		return s
	}

	// Unknown input type: stay suspended rather than guess.
	return in
}
