package task

import (
	"github.com/randalmurphal/llmkit/model"

	"github.com/morten-olsen/aura/agent"
)

// Type represents the kind of work the reasoning engine is asked to do.
// This determines which model tier is appropriate.
type Type string

const (
	// Planning and review - need reasoning
	Plan   Type = "plan"
	Review Type = "review"

	// Step execution - default tier
	Execute Type = "execute"

	// Fast tasks - can use smaller models
	Summarize Type = "summarize"
)

// DefaultModelMap maps task types to default models.
var DefaultModelMap = map[Type]model.ModelName{
	Plan:      model.ModelOpus,
	Review:    model.ModelOpus,
	Execute:   model.ModelSonnet,
	Summarize: model.ModelHaiku,
}

// TierForTask returns the appropriate tier for a task type.
func TierForTask(t Type) model.Tier {
	switch t {
	case Plan, Review:
		return model.TierThinking
	case Summarize:
		return model.TierFast
	default:
		return model.TierDefault
	}
}

// ForPhase maps a workflow phase to the task type its model call performs.
func ForPhase(p agent.Phase) Type {
	switch p {
	case agent.PhasePlanning:
		return Plan
	case agent.PhaseReviewing:
		return Review
	default:
		return Execute
	}
}

// PhaseModel returns a phase-to-model function for the workflow engine.
// Use it with agent.WithModelFunc.
func PhaseModel() func(agent.Phase) string {
	return func(p agent.Phase) string {
		return string(SelectModel(ForPhase(p)))
	}
}

// NewSelector creates a model selector configured for agent tasks.
// It uses the standard task-to-tier mapping.
func NewSelector(opts ...model.SelectorOption) *model.Selector {
	allOpts := append([]model.SelectorOption{
		model.WithTierFunc(func(task any) model.Tier {
			if t, ok := task.(Type); ok {
				return TierForTask(t)
			}
			return model.TierDefault
		}),
	}, opts...)

	return model.NewSelector(allOpts...)
}

// SelectModel selects the appropriate model for a task type.
// Uses the default model map unless overridden.
func SelectModel(t Type) model.ModelName {
	if m, ok := DefaultModelMap[t]; ok {
		return m
	}
	switch TierForTask(t) {
	case model.TierThinking:
		return model.ModelOpus
	case model.TierFast:
		return model.ModelHaiku
	default:
		return model.ModelSonnet
	}
}
