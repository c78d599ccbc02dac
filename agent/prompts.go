package agent

import (
	"fmt"
	"strings"

	"github.com/morten-olsen/aura/prompt"
	"github.com/morten-olsen/aura/ticket"
)

// CompletionSentinel is the marker the reviewer must emit to certify that
// the full plan is done.
const CompletionSentinel = "TASK_COMPLETE"

// QuestionPrefix marks an executing-phase response that needs a human
// answer before the step can continue.
const QuestionPrefix = "QUESTION:"

// Prompt template names looked up via the prompt loader. Projects can
// override any of them by dropping a matching .txt into their prompts dir.
const (
	promptPlanSystem    = "plan_system"
	promptExecuteSystem = "execute_system"
	promptReviewSystem  = "review_system"
)

// Built-in fallbacks used when no loader is configured.
const defaultPlanSystem = `You are a planning assistant. Break the given task into a short ordered
list of concrete steps. Respond with strict JSON only, no prose and no code
fences, in exactly this shape:
{"summary": "...", "steps": [{"title": "...", "description": "..."}]}`

const defaultExecuteSystem = `You are executing one step of an approved plan. Use the available tools
when you need them. When the step is done, respond with a summary of what
you did and no tool calls. If you are blocked on something only a human can
answer, respond with a single line starting with QUESTION: and wait.`

const defaultReviewSystem = `You are reviewing a finished plan. If every step is genuinely complete,
respond with the single token TASK_COMPLETE. Otherwise describe what still
needs work.`

// systemPrompt resolves a named system prompt, preferring the loader.
func (e *Engine) systemPrompt(name, fallback string) string {
	if e.prompts != nil && e.prompts.Exists(name) {
		if text, err := e.prompts.Load(name); err == nil {
			return text
		}
	}
	return fallback
}

// planRequestPrompt is the user message sent in the planning phase.
func planRequestPrompt(title, description string) string {
	b := prompt.NewBuilder()
	b.AddSection("Task", title)
	if description != "" {
		b.AddSection("Details", description)
	}
	return b.Build()
}

// stepPrompt builds the step-scoped user message for the executing phase:
// the plan summary, outputs of prior completed steps, and the current step.
func stepPrompt(plan *ticket.Plan, index int) string {
	b := prompt.NewBuilder()
	b.AddSection("Plan", plan.Summary)

	var done []string
	for i := 0; i < index && i < plan.Len(); i++ {
		s := plan.Steps[i]
		if s.Status != ticket.StepCompleted {
			continue
		}
		out := s.Output
		if out == "" {
			out = "(no output)"
		}
		done = append(done, fmt.Sprintf("Step %d (%s): %s", s.Index+1, s.Title, out))
	}
	if len(done) > 0 {
		b.AddList("Completed so far", done)
	}

	step := plan.Step(index)
	b.AddSection(fmt.Sprintf("Current step (%d of %d)", index+1, plan.Len()),
		strings.TrimSpace(step.Title+"\n"+step.Description))
	return b.Build()
}

// reviewPrompt asks the reasoning engine to certify the full plan.
func reviewPrompt(plan *ticket.Plan) string {
	b := prompt.NewBuilder()
	b.AddSection("Plan", plan.Summary)

	var steps []string
	for _, s := range plan.Steps {
		steps = append(steps, fmt.Sprintf("%d. [%s] %s", s.Index+1, s.Status, s.Title))
	}
	b.AddList("Steps", steps)
	b.Add("Is this task fully complete? Respond " + CompletionSentinel + " if so.")
	return b.Build()
}
