// Package audit records an append-only trail of ticket lifecycle actions:
// status transitions, run starts and finishes, approvals, cancellations.
// FileLog persists entries as JSONL; MemoryLog backs tests.
package audit
