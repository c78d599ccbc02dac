package tools

import (
	"context"
	"encoding/json"

	auraerrors "github.com/morten-olsen/aura/errors"
)

// filesSchema describes the ReadFilesTool input.
const filesSchema = `{
  "type": "object",
  "properties": {
    "paths": {"type": "array", "items": {"type": "string"}, "description": "Files to read, relative to the work directory"},
    "glob": {"type": "string", "description": "Glob pattern of files to read (alternative to paths)"}
  }
}`

// ReadFilesTool returns file contents from the work directory so the model
// can inspect code while executing a step. Output is capped by
// DefaultContextLimits.
type ReadFilesTool struct {
	workDir string
	limits  ContextLimits
}

// NewReadFilesTool creates a read-files tool rooted at workDir.
func NewReadFilesTool(workDir string) *ReadFilesTool {
	return &ReadFilesTool{workDir: workDir, limits: DefaultContextLimits()}
}

// WithFileLimits overrides the size limits.
func (t *ReadFilesTool) WithFileLimits(limits ContextLimits) *ReadFilesTool {
	t.limits = limits
	return t
}

func (t *ReadFilesTool) Name() string { return "read_files" }

func (t *ReadFilesTool) Description() string {
	return "Read one or more files from the working directory and return their contents"
}

func (t *ReadFilesTool) Schema() json.RawMessage {
	return json.RawMessage(filesSchema)
}

type filesInput struct {
	Paths []string `json:"paths"`
	Glob  string   `json:"glob"`
}

func (t *ReadFilesTool) Invoke(ctx context.Context, input json.RawMessage) (string, error) {
	var in filesInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", auraerrors.NewValidation("input", "invalid read_files input: "+err.Error())
	}
	if len(in.Paths) == 0 && in.Glob == "" {
		return "", auraerrors.NewValidation("paths", "paths or glob is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	b := NewContextBuilder(t.workDir).WithLimits(t.limits)
	for _, path := range in.Paths {
		if err := b.AddFile(path); err != nil {
			return "", err
		}
	}
	if in.Glob != "" {
		if err := b.AddGlob(in.Glob); err != nil {
			return "", err
		}
	}
	return b.Build()
}
