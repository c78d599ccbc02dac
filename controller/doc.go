// Package controller owns the user-facing ticket lifecycle: the status
// machine, turn and token budgets, plan approval, and cancellation.
//
// The controller is the only writer of tickets. It drives the workflow
// engine, translates engine phases into validated status transitions, and
// serializes run/resume/cancel per ticket with a per-id lock so concurrent
// calls can never interleave checkpoint writes for the same ticket.
package controller
