// Package errors defines the error taxonomy shared across aura.
//
// Precondition failures (ErrNoPlan, ErrNoPendingApproval, ...) and transition
// violations are returned to callers with a stable code for API mapping; see
// Code. Engine-internal failures (plan parse errors, rejected approvals) are
// never returned as Go errors from a run - they surface as a completed
// workflow state with a terminal error field.
package errors
