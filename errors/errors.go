package errors

import (
	"errors"
	"fmt"
)

// Common lifecycle errors.
var (
	// ErrMaxTurnsExceeded indicates the ticket's turn budget is exhausted.
	ErrMaxTurnsExceeded = errors.New("max turns exceeded")

	// ErrAgentNotRunning indicates a resume was attempted with no checkpoint.
	ErrAgentNotRunning = errors.New("agent not running")

	// ErrNoPlan indicates the ticket has no plan yet.
	ErrNoPlan = errors.New("no plan")

	// ErrNoPendingApproval indicates there is no approval waiting for a response.
	ErrNoPendingApproval = errors.New("no pending approval")

	// ErrNoPendingQuestion indicates there is no question waiting for an answer.
	ErrNoPendingQuestion = errors.New("no pending question")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTranscriptsDisabled indicates a transcript query on a controller
	// configured without a transcript store.
	ErrTranscriptsDisabled = errors.New("transcripts disabled")
)

// ValidationError indicates input with a missing or malformed field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// NewValidation creates a ValidationError for a field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InvalidTransitionError indicates an illegal ticket status change.
// From and To carry the attempted edge for API mapping.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

// ToolExecutionError wraps a failure from a tool invocation. It is caught at
// the tool boundary and recorded in message history, never re-thrown to abort
// a step.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}

// PlanParseError indicates the reasoning engine returned a plan that is not
// the expected strict JSON shape. Fatal to the current run only.
type PlanParseError struct {
	Err error
}

func (e *PlanParseError) Error() string {
	return fmt.Sprintf("parse plan JSON: %v", e.Err)
}

func (e *PlanParseError) Unwrap() error {
	return e.Err
}
