package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	auraerrors "github.com/morten-olsen/aura/errors"
	"github.com/morten-olsen/aura/git"
)

// commandSchema describes the CommandTool input.
const commandSchema = `{
  "type": "object",
  "properties": {
    "command": {"type": "string", "description": "Executable to run"},
    "args": {"type": "array", "items": {"type": "string"}, "description": "Command arguments"},
    "dir": {"type": "string", "description": "Working directory (optional)"}
  },
  "required": ["command"]
}`

// CommandTool runs shell commands through a CommandRunner, so tests can
// script command output without touching the host.
type CommandTool struct {
	runner  git.CommandRunner
	workDir string
	allowed map[string]bool
}

// CommandOption configures a CommandTool.
type CommandOption func(*CommandTool)

// WithWorkDir sets the default working directory for commands.
func WithWorkDir(dir string) CommandOption {
	return func(t *CommandTool) {
		t.workDir = dir
	}
}

// WithAllowedCommands restricts the tool to the named executables.
// Without this option any command is permitted.
func WithAllowedCommands(names ...string) CommandOption {
	return func(t *CommandTool) {
		t.allowed = make(map[string]bool, len(names))
		for _, name := range names {
			t.allowed[name] = true
		}
	}
}

// NewCommandTool creates a command tool backed by the given runner.
// A nil runner defaults to real execution.
func NewCommandTool(runner git.CommandRunner, opts ...CommandOption) *CommandTool {
	if runner == nil {
		runner = git.NewExecRunner()
	}
	t := &CommandTool{runner: runner}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *CommandTool) Name() string { return "run_command" }

func (t *CommandTool) Description() string {
	return "Run a shell command and return its output"
}

func (t *CommandTool) Schema() json.RawMessage {
	return json.RawMessage(commandSchema)
}

type commandInput struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
	Dir     string   `json:"dir"`
}

// Invoke parses the input and runs the command. Command failures are
// returned with their output so the model can see what went wrong.
func (t *CommandTool) Invoke(ctx context.Context, input json.RawMessage) (string, error) {
	var in commandInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", auraerrors.NewValidation("input", "invalid command input: "+err.Error())
	}
	if strings.TrimSpace(in.Command) == "" {
		return "", auraerrors.NewValidation("command", "command is required")
	}
	if t.allowed != nil && !t.allowed[in.Command] {
		return "", auraerrors.NewValidation("command", fmt.Sprintf("command %q is not permitted", in.Command))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := in.Dir
	if dir == "" {
		dir = t.workDir
	}

	out, err := t.runner.Run(dir, in.Command, in.Args...)
	if err != nil {
		if out != "" {
			return "", fmt.Errorf("%s: %w", out, err)
		}
		return "", err
	}
	return out, nil
}
