// Package reasoning defines the LLM collaborator interface the workflow
// engine calls during planning, execution, and review, plus a CLI-backed
// implementation. Any backend works as long as it honors the single-response
// contract and always reports token usage.
package reasoning
