// Package testutil provides test doubles shared across package tests.
package testutil

import (
	"context"
	"sync"

	"github.com/morten-olsen/aura/reasoning"
)

// ScriptClient is a reasoning.Client that replays canned responses in order
// and records every request it sees.
type ScriptClient struct {
	mu        sync.Mutex
	responses []*reasoning.Response
	requests  []reasoning.Request
}

// NewScriptClient creates a client that will return the given responses in
// order. When the script runs out it returns a placeholder response rather
// than failing, so over-consumption shows up in call-count assertions.
func NewScriptClient(responses ...*reasoning.Response) *ScriptClient {
	return &ScriptClient{responses: responses}
}

// Respond builds a plain text response with non-zero token usage.
func Respond(content string) *reasoning.Response {
	return &reasoning.Response{
		Content: content,
		Usage:   reasoning.Usage{Input: 10, Output: 5, Total: 15},
	}
}

// RespondWithTools builds a response that requests the given tool calls.
func RespondWithTools(content string, calls ...reasoning.ToolCall) *reasoning.Response {
	return &reasoning.Response{
		Content:   content,
		ToolCalls: calls,
		Usage:     reasoning.Usage{Input: 10, Output: 5, Total: 15},
	}
}

// Push appends more responses to the script.
func (c *ScriptClient) Push(responses ...*reasoning.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = append(c.responses, responses...)
}

// Requests returns a copy of all requests seen so far.
func (c *ScriptClient) Requests() []reasoning.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]reasoning.Request, len(c.requests))
	copy(out, c.requests)
	return out
}

// Calls returns how many completion calls have been made.
func (c *ScriptClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func (c *ScriptClient) next(req reasoning.Request) *reasoning.Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if len(c.responses) == 0 {
		return &reasoning.Response{Content: "(script exhausted)"}
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp
}

// Complete implements reasoning.Client.
func (c *ScriptClient) Complete(ctx context.Context, req reasoning.Request) (*reasoning.Response, error) {
	return c.next(req), nil
}

// CompleteWithTools implements reasoning.Client.
func (c *ScriptClient) CompleteWithTools(ctx context.Context, req reasoning.Request, tools []reasoning.ToolDef) (*reasoning.Response, error) {
	return c.next(req), nil
}
