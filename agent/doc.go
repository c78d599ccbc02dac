// Package agent implements the workflow engine that drives a ticket through
// its phases: planning, executing, reviewing, waiting, completed.
//
// Each phase is a pure function from state to state; a small driver loop
// applies a router after every call and writes a checkpoint so the workflow
// survives process restarts. Suspension for human input is plain data — the
// state returns with phase waiting, and resumption is an ordinary call with
// the new input; there are no background goroutines per ticket.
//
// Failures inside the engine (unparseable plans, rejected approvals,
// reasoning errors) are represented as a completed state with a terminal
// error, so a run always lands in a stable suspended-or-terminal state.
package agent
