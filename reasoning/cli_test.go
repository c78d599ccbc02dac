package reasoning

import (
	"strings"
	"testing"
	"time"
)

func TestNewCLIClient_NotFound(t *testing.T) {
	_, err := NewCLIClient(CLIConfig{
		BinaryPath: "/nonexistent/binary",
	})
	if err != ErrBinaryNotFound {
		t.Errorf("err = %v, want ErrBinaryNotFound", err)
	}
}

func TestCLIClient_BuildArgs(t *testing.T) {
	cli := &CLIClient{
		binaryPath: "claude",
		timeout:    5 * time.Minute,
	}

	tests := []struct {
		name  string
		req   Request
		tools []ToolDef
		want  []string
	}{
		{
			name: "basic prompt",
			req:  Request{Messages: []Message{{Role: RoleUser, Content: "Hello"}}},
			want: []string{"--print", "--output-format", "json", "-p", "Hello"},
		},
		{
			name: "with model and system",
			req: Request{
				System:   "be terse",
				Model:    "claude-3-haiku",
				Messages: []Message{{Role: RoleUser, Content: "Hi"}},
			},
			want: []string{
				"--print", "--output-format", "json",
				"--model", "claude-3-haiku",
				"--system-prompt", "be terse",
				"-p", "Hi",
			},
		},
		{
			name: "with tools",
			req:  Request{Messages: []Message{{Role: RoleUser, Content: "Go"}}},
			tools: []ToolDef{
				{Name: "run_command"},
				{Name: "read_file"},
			},
			want: []string{
				"--print", "--output-format", "json",
				"--allowedTools", "run_command",
				"--allowedTools", "read_file",
				"-p", "Go",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cli.buildArgs(tt.req, tt.tools)
			if len(got) != len(tt.want) {
				t.Fatalf("args = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("args[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRenderPrompt(t *testing.T) {
	single := renderPrompt([]Message{{Role: RoleUser, Content: "just this"}})
	if single != "just this" {
		t.Errorf("renderPrompt(single) = %q", single)
	}

	multi := renderPrompt([]Message{
		{Role: RoleUser, Content: "do it"},
		{Role: RoleAssistant, Content: "working"},
		{Role: RoleTool, ToolName: "run_command", Content: "exit 0"},
	})
	for _, want := range []string{"[user]", "[assistant]", "[tool run_command result]", "exit 0"} {
		if !strings.Contains(multi, want) {
			t.Errorf("renderPrompt() missing %q in:\n%s", want, multi)
		}
	}
}

func TestParseCLIOutput(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantContent string
		wantIn      int
		wantOut     int
		wantTotal   int
		wantErr     bool
	}{
		{
			name:        "standard fields",
			input:       `{"result":"done","tokens_in":100,"tokens_out":50}`,
			wantContent: "done",
			wantIn:      100,
			wantOut:     50,
			wantTotal:   150,
		},
		{
			name:        "alternate token fields",
			input:       `{"result":"ok","input_tokens":10,"output_tokens":5,"total_tokens":15}`,
			wantContent: "ok",
			wantIn:      10,
			wantOut:     5,
			wantTotal:   15,
		},
		{
			name:        "json embedded in noise",
			input:       "some log line\n{\"result\":\"found\"}\n",
			wantContent: "found",
		},
		{
			name:    "no json",
			input:   "plain text only",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := parseCLIOutput([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("parseCLIOutput() should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseCLIOutput() error = %v", err)
			}
			if resp.Content != tt.wantContent {
				t.Errorf("Content = %q, want %q", resp.Content, tt.wantContent)
			}
			if resp.Usage.Input != tt.wantIn {
				t.Errorf("Usage.Input = %d, want %d", resp.Usage.Input, tt.wantIn)
			}
			if resp.Usage.Output != tt.wantOut {
				t.Errorf("Usage.Output = %d, want %d", resp.Usage.Output, tt.wantOut)
			}
			if resp.Usage.Total != tt.wantTotal {
				t.Errorf("Usage.Total = %d, want %d", resp.Usage.Total, tt.wantTotal)
			}
		})
	}
}

func TestParseCLIOutput_ToolCalls(t *testing.T) {
	input := `{"result":"","tool_calls":[{"id":"tc1","name":"run_command","input":{"command":"ls"}}]}`

	resp, err := parseCLIOutput([]byte(input))
	if err != nil {
		t.Fatalf("parseCLIOutput() error = %v", err)
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("len(ToolCalls) = %d, want 1", len(resp.ToolCalls))
	}
	if resp.ToolCalls[0].Name != "run_command" {
		t.Errorf("ToolCalls[0].Name = %q, want %q", resp.ToolCalls[0].Name, "run_command")
	}
}
