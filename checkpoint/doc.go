// Package checkpoint stores durable snapshots of workflow state keyed by the
// (ticket ID, checkpoint ID) pair. Snapshots let an agent run resume exactly
// where it stopped after a crash or a human-in-the-loop suspension.
//
// Put is an upsert: re-entrant writes of the same pair replace the payload
// without duplicating rows. All checkpoints for a ticket are deleted together
// on cancellation and are never mutated otherwise, except to append pending
// writes.
package checkpoint
