package reasoning

import (
	"context"
	"encoding/json"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry in the conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// ToolCallID links a tool-result message to the call that produced it.
	ToolCallID string `json:"toolCallId,omitempty"`

	// ToolName names the tool for tool-result messages.
	ToolName string `json:"toolName,omitempty"`
}

// Request is a completion request.
type Request struct {
	// System is the system prompt, separate from the message history.
	System string

	// Messages is the conversation so far.
	Messages []Message

	// Model overrides the client's default model when non-empty.
	Model string

	// MaxTokens limits response length. 0 uses the backend default.
	MaxTokens int
}

// Usage is the token consumption of one call. Clients must always populate
// it, with zeros when the backend reports nothing.
type Usage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// ToolDef describes a tool offered to the reasoning engine.
type ToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"schema,omitempty"`
}

// ToolCall is one tool invocation requested by the reasoning engine.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// Response is the result of a completion call.
type Response struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	Usage     Usage      `json:"usage"`
	Model     string     `json:"model,omitempty"`
	SessionID string     `json:"sessionId,omitempty"`
}

// Client is the reasoning-engine collaborator. One call, one response; any
// multi-turn behavior is driven by the caller re-invoking with grown history.
type Client interface {
	// Complete sends the request without tool access.
	Complete(ctx context.Context, req Request) (*Response, error)

	// CompleteWithTools sends the request offering the given tools; the
	// response may carry tool calls for the caller to execute.
	CompleteWithTools(ctx context.Context, req Request, tools []ToolDef) (*Response, error)
}
