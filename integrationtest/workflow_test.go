package integrationtest

import (
	"errors"
	"testing"

	"github.com/morten-olsen/aura/agent"
	"github.com/morten-olsen/aura/checkpoint"
	aerrors "github.com/morten-olsen/aura/errors"
	"github.com/morten-olsen/aura/testutil"
	"github.com/morten-olsen/aura/ticket"
	"github.com/morten-olsen/aura/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestApprovalWorkflow drives a ticket through its full life: plan,
// suspend for approval, approve out of band, execute, review, complete.
func TestApprovalWorkflow(t *testing.T) {
	h := newHarness(t, true)
	ctx := testutil.TestContext(t)

	created, err := h.ctrl.Create(ctx, "Add rate limiting", "limit requests per client")
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusDraft, created.Status)

	h.script(planJSON)
	got, err := h.ctrl.Run(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, ticket.StatusPendingApproval, got.Status)
	require.NotNil(t, got.Plan)
	require.Len(t, got.Plan.Steps, 1)
	assert.Equal(t, "implement", got.Plan.Steps[0].Title)
	require.NotNil(t, got.PendingApproval, "suspending for approval must open an approval request")
	assert.Nil(t, got.ResolvedAt)

	_, err = h.ctrl.ApprovePlan(ctx, created.ID, "alice")
	require.NoError(t, err)

	h.script("wrote the limiter", agent.CompletionSentinel)
	got, err = h.ctrl.Run(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, ticket.StatusCompleted, got.Status)
	require.NotNil(t, got.ResolvedAt, "terminal status must stamp resolvedAt")
	assert.Equal(t, "alice", got.Plan.ApprovedBy)
	assert.Equal(t, ticket.StepCompleted, got.Plan.Steps[0].Status)
	assert.Equal(t, 2, got.CurrentTurn)
	assert.Greater(t, got.Tokens.Total, 0)

	// Both runs were recorded as transcripts.
	metas, err := h.transcripts.List(transcript.ListFilter{TicketID: created.ID})
	require.NoError(t, err)
	assert.Len(t, metas, 2)
}

// TestPlanRejection checks that a rejected plan sends the ticket back to
// draft instead of failing it outright.
func TestPlanRejection(t *testing.T) {
	h := newHarness(t, true)
	ctx := testutil.TestContext(t)

	created, err := h.ctrl.Create(ctx, "Rework schema", "")
	require.NoError(t, err)

	h.script(planJSON)
	_, err = h.ctrl.Run(ctx, created.ID)
	require.NoError(t, err)

	got, err := h.ctrl.RejectPlan(ctx, created.ID, "bob", "too invasive")
	require.NoError(t, err)

	assert.Equal(t, ticket.StatusDraft, got.Status)
	require.NotNil(t, got.PendingApproval)
	require.NotNil(t, got.PendingApproval.Approved)
	assert.False(t, *got.PendingApproval.Approved)

	state, err := h.ctrl.GetState(ctx, created.ID)
	require.NoError(t, err)
	assert.Contains(t, state.Err, "too invasive")
}

// TestQuestionRoundTrip suspends a run on a model question and resumes it
// with the answer.
func TestQuestionRoundTrip(t *testing.T) {
	h := newHarness(t, false)
	ctx := testutil.TestContext(t)

	created, err := h.ctrl.Create(ctx, "Add caching", "")
	require.NoError(t, err)

	h.script(planJSON, "QUESTION: which cache backend should this use?")
	got, err := h.ctrl.Run(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, ticket.StatusAwaitingInput, got.Status)
	require.NotNil(t, got.PendingQuestion)
	assert.Contains(t, got.PendingQuestion.Text, "which cache backend")
	assert.Equal(t, ticket.StepInProgress, got.Plan.Steps[0].Status)

	h.script("used redis as requested", agent.CompletionSentinel)
	got, err = h.ctrl.AnswerQuestion(ctx, created.ID, "use redis")
	require.NoError(t, err)

	assert.Equal(t, ticket.StatusCompleted, got.Status)
	require.NotNil(t, got.PendingQuestion.AnsweredAt)
	assert.Equal(t, "use redis", got.PendingQuestion.Answer)
}

// TestCancelDeletesCheckpoints verifies that cancelling a suspended ticket
// removes its saved workflow state.
func TestCancelDeletesCheckpoints(t *testing.T) {
	h := newHarness(t, true)
	ctx := testutil.TestContext(t)

	created, err := h.ctrl.Create(ctx, "Abandoned work", "")
	require.NoError(t, err)

	h.script(planJSON)
	_, err = h.ctrl.Run(ctx, created.ID)
	require.NoError(t, err)

	_, err = h.engine.Latest(ctx, created.ID)
	require.NoError(t, err, "a suspended ticket must have a checkpoint")

	got, err := h.ctrl.Cancel(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusCancelled, got.Status)
	require.NotNil(t, got.ResolvedAt)

	_, err = h.engine.Latest(ctx, created.ID)
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)

	// Cancelling a terminal ticket is a no-op.
	got, err = h.ctrl.Cancel(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusCancelled, got.Status)
}

// TestMaxTurnsExceeded checks the turn budget gate on Run.
func TestMaxTurnsExceeded(t *testing.T) {
	h := newHarness(t, false)
	ctx := testutil.TestContext(t)

	created, err := h.ctrl.Create(ctx, "Runaway ticket", "")
	require.NoError(t, err)

	created.CurrentTurn = created.MaxTurns
	require.NoError(t, h.tickets.Update(ctx, created))

	_, err = h.ctrl.Run(ctx, created.ID)
	assert.True(t, errors.Is(err, aerrors.ErrMaxTurnsExceeded), "err = %v", err)
}

// TestResumeWithoutCheckpoint checks that delivering input to a ticket
// whose agent never ran fails cleanly.
func TestResumeWithoutCheckpoint(t *testing.T) {
	h := newHarness(t, true)
	ctx := testutil.TestContext(t)

	created, err := h.ctrl.Create(ctx, "Never started", "")
	require.NoError(t, err)

	_, err = h.ctrl.Resume(ctx, created.ID, agent.HumanInput{Type: agent.InputApproval, Approved: true})
	assert.True(t, errors.Is(err, aerrors.ErrAgentNotRunning), "err = %v", err)
}

// TestUnparsablePlanFailsTicket checks that a planning response that is
// not valid JSON lands the ticket in failed, not in an error return.
func TestUnparsablePlanFailsTicket(t *testing.T) {
	h := newHarness(t, false)
	ctx := testutil.TestContext(t)

	created, err := h.ctrl.Create(ctx, "Bad planner output", "")
	require.NoError(t, err)

	h.script("sure, here is my plan in prose")
	got, err := h.ctrl.Run(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, ticket.StatusFailed, got.Status)
	require.NotNil(t, got.ResolvedAt)

	metas, err := h.transcripts.List(transcript.ListFilter{TicketID: created.ID, Status: transcript.RunStatusFailed})
	require.NoError(t, err)
	assert.Len(t, metas, 1)
}
