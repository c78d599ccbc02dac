package git

import (
	"os/exec"
	"strings"
	"sync"
)

// CommandRunner executes external commands. The default implementation
// shells out; tests inject a MockRunner instead.
type CommandRunner interface {
	// Run executes name with args in workDir and returns trimmed stdout.
	// An empty workDir runs in the process working directory.
	Run(workDir string, name string, args ...string) (string, error)
}

// CommandError wraps a failed command execution with its output.
type CommandError struct {
	Command string
	Args    []string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Output != "" {
		return e.Output
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "command failed"
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

// NewExecRunner creates a runner that executes real commands.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command and returns trimmed combined output.
func (r *ExecRunner) Run(workDir string, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	if workDir != "" {
		cmd.Dir = workDir
	}
	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		return output, &CommandError{
			Command: name,
			Args:    args,
			Output:  output,
			Err:     err,
		}
	}
	return output, nil
}

// MockResponse is a canned response for a mocked command.
type MockResponse struct {
	Stdout string
	Err    error
}

// Call records one invocation seen by a MockRunner.
type Call struct {
	WorkDir string
	Command string
	Args    []string
}

// MockRunner is a CommandRunner for tests. Responses are matched in
// order: exact command+args, command only, then the "*" wildcard; if
// nothing matches, DefaultResponse is returned.
type MockRunner struct {
	mu              sync.Mutex
	Responses       map[string]MockResponse
	DefaultResponse MockResponse
	Calls           []Call

	// queue holds ordered responses consumed before map matching.
	queue []MockResponse
}

// NewMockRunner creates an empty mock runner.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		Responses: make(map[string]MockResponse),
	}
}

// NewSequentialMockRunner creates a mock runner intended for scripted
// sequences built with AddOutput and AddOutputError.
func NewSequentialMockRunner() *MockRunner {
	return NewMockRunner()
}

// responseKey builds the lookup key for a command and its args.
func responseKey(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// MockExpectation configures the response for a matched command.
type MockExpectation struct {
	runner *MockRunner
	key    string
}

// Return sets the stdout and error returned for the matched command.
func (e *MockExpectation) Return(stdout string, err error) {
	e.runner.mu.Lock()
	defer e.runner.mu.Unlock()
	e.runner.Responses[e.key] = MockResponse{Stdout: stdout, Err: err}
}

// OnCommand registers a response for an exact command and arguments.
func (m *MockRunner) OnCommand(name string, args ...string) *MockExpectation {
	return &MockExpectation{runner: m, key: responseKey(name, args...)}
}

// OnAnyCommand registers a wildcard response used when nothing else matches.
func (m *MockRunner) OnAnyCommand() *MockExpectation {
	return &MockExpectation{runner: m, key: "*"}
}

// AddOutput appends an ordered response consumed by the next Run call,
// regardless of what command is run. Useful for scripting a sequence.
func (m *MockRunner) AddOutput(stdout string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, MockResponse{Stdout: stdout, Err: err})
}

// AddOutputError appends an ordered response with both output and error.
func (m *MockRunner) AddOutputError(stdout, errOutput string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, MockResponse{
		Stdout: stdout,
		Err:    &CommandError{Output: errOutput, Err: err},
	})
}

// Run records the call and returns the first matching canned response.
func (m *MockRunner) Run(workDir string, name string, args ...string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, Call{WorkDir: workDir, Command: name, Args: args})

	if len(m.queue) > 0 {
		resp := m.queue[0]
		m.queue = m.queue[1:]
		return resp.Stdout, resp.Err
	}
	if resp, ok := m.Responses[responseKey(name, args...)]; ok {
		return resp.Stdout, resp.Err
	}
	if resp, ok := m.Responses[name]; ok {
		return resp.Stdout, resp.Err
	}
	if resp, ok := m.Responses["*"]; ok {
		return resp.Stdout, resp.Err
	}
	return m.DefaultResponse.Stdout, m.DefaultResponse.Err
}

// WasCalled reports whether the command was run. With args, the exact
// argument prefix must match as well.
func (m *MockRunner) WasCalled(name string, args ...string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Calls {
		if c.Command != name {
			continue
		}
		if len(args) == 0 {
			return true
		}
		if len(c.Args) >= len(args) && argsMatch(c.Args[:len(args)], args) {
			return true
		}
	}
	return false
}

// CallCount returns how many times the command was run.
func (m *MockRunner) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c.Command == name {
			n++
		}
	}
	return n
}

func argsMatch(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i := range actual {
		if actual[i] != expected[i] {
			return false
		}
	}
	return true
}
