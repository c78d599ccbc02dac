package errors

import "errors"

// Stable error codes for API mapping. Presentation layers switch on these
// instead of matching error strings.
const (
	CodeValidation        = "validation_error"
	CodeInvalidTransition = "invalid_transition"
	CodeMaxTurnsExceeded  = "max_turns_exceeded"
	CodeAgentNotRunning   = "agent_not_running"
	CodeNoPlan            = "no_plan"
	CodeNoPendingApproval = "no_pending_approval"
	CodeNoPendingQuestion = "no_pending_question"
	CodeToolExecution     = "tool_execution_error"
	CodePlanParse         = "plan_parse_error"
	CodeNotFound          = "not_found"
	CodeInternal          = "internal_error"
)

// Code maps an error to its stable code. Unknown errors map to CodeInternal.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return CodeValidation
	case IsInvalidTransition(err):
		return CodeInvalidTransition
	case errors.Is(err, ErrMaxTurnsExceeded):
		return CodeMaxTurnsExceeded
	case errors.Is(err, ErrAgentNotRunning):
		return CodeAgentNotRunning
	case errors.Is(err, ErrNoPlan):
		return CodeNoPlan
	case errors.Is(err, ErrNoPendingApproval):
		return CodeNoPendingApproval
	case errors.Is(err, ErrNoPendingQuestion):
		return CodeNoPendingQuestion
	case IsToolExecution(err):
		return CodeToolExecution
	case IsPlanParse(err):
		return CodePlanParse
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	default:
		return CodeInternal
	}
}
