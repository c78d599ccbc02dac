// Package ticket defines the user-facing work item: a ticket with a status
// lifecycle, a plan of ordered steps, turn and token budgets, and pending
// human checkpoints.
//
// Status changes only move along an explicit transition table; anything else
// fails with an InvalidTransitionError and leaves the ticket untouched.
// The workflow engine never writes tickets - the lifecycle controller owns
// them exclusively.
package ticket
