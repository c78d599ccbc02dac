package integrationtest

import (
	"testing"

	"github.com/morten-olsen/aura/agent"
	"github.com/morten-olsen/aura/controller"
	"github.com/morten-olsen/aura/git"
	"github.com/morten-olsen/aura/testutil"
	"github.com/morten-olsen/aura/ticket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWorkspaceRecordsCommits runs a ticket against a real git repository
// and checks that work landed on the ticket's branch is picked up.
func TestWorkspaceRecordsCommits(t *testing.T) {
	repoPath := testutil.SetupTestRepo(t)

	gc, err := git.NewContext(repoPath)
	require.NoError(t, err)
	ws := git.NewWorkspace(gc, git.WithBaseBranch("main"))

	h := newHarness(t, true, controller.WithWorkspace(ws))
	ctx := testutil.TestContext(t)

	created, err := h.ctrl.Create(ctx, "Add rate limiting", "")
	require.NoError(t, err)

	h.script(planJSON)
	got, err := h.ctrl.Run(ctx, created.ID)
	require.NoError(t, err)

	require.NotEmpty(t, got.WorkingBranch, "run must check out a working branch")
	assert.Equal(t, got.WorkingBranch, testutil.GetCurrentBranch(t, repoPath))

	// Work lands on the branch while the ticket waits for approval.
	testutil.CommitFile(t, repoPath, "limiter.go", "package limiter\n", "Add limiter skeleton")

	_, err = h.ctrl.ApprovePlan(ctx, created.ID, "alice")
	require.NoError(t, err)

	h.script("wrote the limiter", agent.CompletionSentinel)
	got, err = h.ctrl.Run(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, ticket.StatusCompleted, got.Status)
	require.Len(t, got.Commits, 1)
	assert.Equal(t, testutil.GetHeadSHA(t, repoPath), got.Commits[0])
}

// TestWorkspaceCommitsStepWork runs a ticket that leaves files in the
// working tree and checks the controller commits them on the ticket's
// branch with a conventional message referencing the ticket.
func TestWorkspaceCommitsStepWork(t *testing.T) {
	repoPath := testutil.SetupTestRepo(t)

	gc, err := git.NewContext(repoPath)
	require.NoError(t, err)
	ws := git.NewWorkspace(gc, git.WithBaseBranch("main"))

	h := newHarness(t, false, controller.WithWorkspace(ws))
	ctx := testutil.TestContext(t)

	created, err := h.ctrl.Create(ctx, "Add rate limiting", "")
	require.NoError(t, err)

	// The run leaves a file in the tree without committing it itself.
	testutil.WriteFile(t, repoPath, "limiter.go", "package limiter\n")

	h.script(planJSON, "wrote the limiter", agent.CompletionSentinel)
	got, err := h.ctrl.Run(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, ticket.StatusCompleted, got.Status)

	require.Len(t, got.Commits, 1)
	assert.Equal(t, testutil.GetHeadSHA(t, repoPath), got.Commits[0])

	msg := testutil.GetHeadMessage(t, repoPath)
	assert.Contains(t, msg, "feat: implement")
	assert.Contains(t, msg, "Refs: "+created.ID)
}
