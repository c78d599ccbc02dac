package errors

import "errors"

// IsMaxTurnsExceeded checks if an error is a turn-budget failure.
func IsMaxTurnsExceeded(err error) bool {
	return errors.Is(err, ErrMaxTurnsExceeded)
}

// IsAgentNotRunning checks if an error is a resume-without-checkpoint failure.
func IsAgentNotRunning(err error) bool {
	return errors.Is(err, ErrAgentNotRunning)
}

// IsNotFound checks if an error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidTransition checks if an error is an illegal status change.
func IsInvalidTransition(err error) bool {
	var te *InvalidTransitionError
	return errors.As(err, &te)
}

// IsValidation checks if an error is a bad-input failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsToolExecution checks if an error came from a tool invocation.
func IsToolExecution(err error) bool {
	var te *ToolExecutionError
	return errors.As(err, &te)
}

// IsPlanParse checks if an error is a plan JSON parse failure.
func IsPlanParse(err error) bool {
	var pe *PlanParseError
	return errors.As(err, &pe)
}
