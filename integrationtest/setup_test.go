package integrationtest

import (
	"path/filepath"
	"testing"

	"github.com/morten-olsen/aura/agent"
	"github.com/morten-olsen/aura/checkpoint"
	"github.com/morten-olsen/aura/controller"
	"github.com/morten-olsen/aura/testutil"
	"github.com/morten-olsen/aura/ticket"
	"github.com/morten-olsen/aura/transcript"
	"github.com/stretchr/testify/require"
)

const planJSON = `{"summary":"wire the feature","steps":[{"title":"implement","description":"write the code"}]}`

// harness wires a controller against file-backed stores in a temp
// directory, the same shape a real deployment uses.
type harness struct {
	ctrl        *controller.Controller
	engine      *agent.Engine
	client      *testutil.ScriptClient
	tickets     *ticket.FileStore
	checkpoints *checkpoint.FileStore
	transcripts *transcript.FileStore
}

func newHarness(t *testing.T, approvalRequired bool, opts ...controller.Option) *harness {
	t.Helper()

	dir := t.TempDir()

	tickets, err := ticket.NewFileStore(filepath.Join(dir, "tickets"))
	require.NoError(t, err)
	checkpoints, err := checkpoint.NewFileStore(filepath.Join(dir, "checkpoints"))
	require.NoError(t, err)
	transcripts, err := transcript.NewFileStore(transcript.StoreConfig{BaseDir: filepath.Join(dir, "transcripts")})
	require.NoError(t, err)

	client := testutil.NewScriptClient()
	engine := agent.NewEngine(client, checkpoints)

	opts = append([]controller.Option{
		controller.WithApprovalRequired(approvalRequired),
		controller.WithTranscripts(transcripts),
	}, opts...)

	return &harness{
		ctrl:        controller.New(tickets, checkpoints, engine, opts...),
		engine:      engine,
		client:      client,
		tickets:     tickets,
		checkpoints: checkpoints,
		transcripts: transcripts,
	}
}

// script appends plain text responses to the reasoning client's script.
func (h *harness) script(responses ...string) {
	for _, r := range responses {
		h.client.Push(testutil.Respond(r))
	}
}
