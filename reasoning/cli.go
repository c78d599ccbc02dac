package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CLI client errors.
var (
	// ErrBinaryNotFound indicates the reasoning CLI binary was not found.
	ErrBinaryNotFound = errors.New("reasoning CLI not found")

	// ErrTimeout indicates the CLI execution timed out.
	ErrTimeout = errors.New("reasoning CLI timed out")

	// ErrCLIFailed indicates the CLI exited with an error.
	ErrCLIFailed = errors.New("reasoning CLI failed")
)

// CLIClient implements Client by shelling out to an agent CLI binary
// (claude by default) in non-interactive JSON mode.
type CLIClient struct {
	binaryPath string
	model      string
	timeout    time.Duration
	workDir    string
}

// CLIConfig configures the CLI client.
type CLIConfig struct {
	BinaryPath string        // Path to the binary (default: "claude")
	Model      string        // Default model (empty = binary default)
	Timeout    time.Duration // Per-call timeout (default: 5m)
	WorkDir    string        // Working directory for the CLI
}

// NewCLIClient creates a CLI-backed reasoning client.
// Returns ErrBinaryNotFound if the binary is not installed.
func NewCLIClient(cfg CLIConfig) (*CLIClient, error) {
	binaryPath := cfg.BinaryPath
	if binaryPath == "" {
		binaryPath = "claude"
	}

	if _, err := exec.LookPath(binaryPath); err != nil {
		return nil, ErrBinaryNotFound
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}

	return &CLIClient{
		binaryPath: binaryPath,
		model:      cfg.Model,
		timeout:    timeout,
		workDir:    cfg.WorkDir,
	}, nil
}

// Complete sends the request without tool access.
func (c *CLIClient) Complete(ctx context.Context, req Request) (*Response, error) {
	return c.run(ctx, req, nil)
}

// CompleteWithTools sends the request with tool definitions. The CLI reports
// requested tool calls in its JSON output.
func (c *CLIClient) CompleteWithTools(ctx context.Context, req Request, tools []ToolDef) (*Response, error) {
	return c.run(ctx, req, tools)
}

func (c *CLIClient) run(ctx context.Context, req Request, tools []ToolDef) (*Response, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("at least one message is required")
	}

	args := c.buildArgs(req, tools)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binaryPath, args...)
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: after %v", ErrTimeout, c.timeout)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr != "" {
			return nil, fmt.Errorf("%w: %s", ErrCLIFailed, stderrStr)
		}
		return nil, fmt.Errorf("%w: %v", ErrCLIFailed, err)
	}

	resp, err := parseCLIOutput(stdout.Bytes())
	if err != nil {
		// Fallback to raw output with zero usage.
		resp = &Response{Content: strings.TrimSpace(stdout.String())}
	}
	if resp.Model == "" {
		resp.Model = c.model
	}
	return resp, nil
}

// buildArgs constructs command line arguments for the CLI.
func (c *CLIClient) buildArgs(req Request, tools []ToolDef) []string {
	args := []string{"--print", "--output-format", "json"}

	model := req.Model
	if model == "" {
		model = c.model
	}
	if model != "" {
		args = append(args, "--model", model)
	}
	if req.System != "" {
		args = append(args, "--system-prompt", req.System)
	}
	for _, tool := range tools {
		args = append(args, "--allowedTools", tool.Name)
	}

	args = append(args, "-p", renderPrompt(req.Messages))
	return args
}

// renderPrompt flattens the message history into a single prompt. Tool
// results keep their originating tool name so the model can line them up.
func renderPrompt(messages []Message) string {
	if len(messages) == 1 && messages[0].Role == RoleUser {
		return messages[0].Content
	}

	var b strings.Builder
	for _, m := range messages {
		switch m.Role {
		case RoleTool:
			fmt.Fprintf(&b, "[tool %s result]\n%s\n\n", m.ToolName, m.Content)
		default:
			fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
		}
	}
	return strings.TrimSpace(b.String())
}

// cliJSONOutput represents the JSON output from the CLI. Token fields vary
// across CLI versions, so both spellings are accepted.
type cliJSONOutput struct {
	Result       string     `json:"result"`
	TokensIn     int        `json:"tokens_in"`
	TokensOut    int        `json:"tokens_out"`
	InputTokens  int        `json:"input_tokens"`
	OutputTokens int        `json:"output_tokens"`
	TotalTokens  int        `json:"total_tokens"`
	SessionID    string     `json:"session_id"`
	Model        string     `json:"model"`
	ToolCalls    []ToolCall `json:"tool_calls"`
}

// parseCLIOutput parses the JSON output from the CLI.
func parseCLIOutput(data []byte) (*Response, error) {
	data = bytes.TrimSpace(data)

	var output cliJSONOutput
	if err := json.Unmarshal(data, &output); err != nil {
		// The JSON may be surrounded by other content.
		start := bytes.Index(data, []byte("{"))
		end := bytes.LastIndex(data, []byte("}"))
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no json found in output")
		}
		if err := json.Unmarshal(data[start:end+1], &output); err != nil {
			return nil, fmt.Errorf("parse json output: %w", err)
		}
	}

	in := output.TokensIn
	if in == 0 {
		in = output.InputTokens
	}
	out := output.TokensOut
	if out == 0 {
		out = output.OutputTokens
	}
	total := output.TotalTokens
	if total == 0 {
		total = in + out
	}

	return &Response{
		Content:   output.Result,
		ToolCalls: output.ToolCalls,
		Usage:     Usage{Input: in, Output: out, Total: total},
		Model:     output.Model,
		SessionID: output.SessionID,
	}, nil
}

// BinaryPath returns the path to the CLI binary.
func (c *CLIClient) BinaryPath() string {
	return c.binaryPath
}

// DefaultModel returns the default model.
func (c *CLIClient) DefaultModel() string {
	return c.model
}

// DefaultTimeout returns the per-call timeout.
func (c *CLIClient) DefaultTimeout() time.Duration {
	return c.timeout
}
