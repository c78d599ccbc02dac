package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	auraerrors "github.com/morten-olsen/aura/errors"
	"github.com/morten-olsen/aura/reasoning"
)

// Tool is a capability the model can invoke during step execution.
type Tool interface {
	// Name is the identifier the model uses to request the tool.
	Name() string

	// Description tells the model what the tool does.
	Description() string

	// Schema is the JSON schema for the tool's input.
	Schema() json.RawMessage

	// Invoke executes the tool with the given JSON input and returns
	// its textual result.
	Invoke(ctx context.Context, input json.RawMessage) (string, error)
}

// Registry holds the tools available to an agent run.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, replacing any existing tool with the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get returns the named tool, or nil if not registered.
func (r *Registry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Names returns registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defs returns the tool definitions to advertise to the model,
// ordered by name.
func (r *Registry) Defs() []reasoning.ToolDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	defs := make([]reasoning.ToolDef, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		defs = append(defs, reasoning.ToolDef{
			Name:        t.Name(),
			Description: t.Description(),
			Schema:      t.Schema(),
		})
	}
	return defs
}

// Execute runs a requested tool call and always returns a result string
// suitable for the conversation history. Failures — unknown tools, tool
// errors, panics — are rendered as error text, never propagated, so a
// misbehaving tool cannot abort the step.
func Execute(ctx context.Context, reg *Registry, call reasoning.ToolCall) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = fmt.Sprintf("error: tool %s panicked: %v", call.Name, r)
		}
	}()

	t := reg.Get(call.Name)
	if t == nil {
		return fmt.Sprintf("error: unknown tool %q", call.Name)
	}

	out, err := t.Invoke(ctx, call.Input)
	if err != nil {
		return "error: " + (&auraerrors.ToolExecutionError{Tool: call.Name, Err: err}).Error()
	}
	return out
}
