// Package task maps workflow phases to model tiers.
//
// Planning and review runs benefit from a thinking-tier model; step
// execution uses the default tier; summaries can run on a fast model.
//
// Example usage:
//
//	engine := agent.NewEngine(client, store,
//	    agent.WithModelFunc(task.PhaseModel()),
//	)
package task
