// Package tools defines the capabilities an agent may invoke while
// executing a plan step.
//
// A Registry maps tool names to implementations and produces the
// definitions advertised to the model. Execute runs a requested call
// and converts every failure mode, including panics, into error text
// for the conversation history so a broken tool never aborts a step.
package tools
