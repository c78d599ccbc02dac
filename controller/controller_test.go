package controller

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/morten-olsen/aura/agent"
	"github.com/morten-olsen/aura/audit"
	"github.com/morten-olsen/aura/auth"
	"github.com/morten-olsen/aura/checkpoint"
	aerrors "github.com/morten-olsen/aura/errors"
	"github.com/morten-olsen/aura/git"
	"github.com/morten-olsen/aura/notify"
	"github.com/morten-olsen/aura/testutil"
	"github.com/morten-olsen/aura/ticket"
	"github.com/morten-olsen/aura/transcript"
)

const planJSON = `{"summary":"do the thing","steps":[{"title":"first","description":"do first"}]}`

// fixture wires a controller with in-memory stores and a scripted client.
type fixture struct {
	ctrl        *Controller
	client      *testutil.ScriptClient
	tickets     *ticket.MemoryStore
	checkpoints *checkpoint.MemoryStore
	auditLog    *audit.MemoryLog
	events      *recordingNotifier
}

func newFixture(t *testing.T, approvalRequired bool, responses ...interface{}) *fixture {
	t.Helper()

	client := testutil.NewScriptClient()
	for _, r := range responses {
		switch v := r.(type) {
		case string:
			client.Push(testutil.Respond(v))
		default:
			t.Fatalf("unsupported scripted response %T", r)
		}
	}

	tickets := ticket.NewMemoryStore()
	checkpoints := checkpoint.NewMemoryStore()
	engine := agent.NewEngine(client, checkpoints)
	auditLog := audit.NewMemoryLog()
	events := &recordingNotifier{}

	ctrl := New(tickets, checkpoints, engine,
		WithApprovalRequired(approvalRequired),
		WithAudit(auditLog),
		WithNotifier(events),
	)
	return &fixture{
		ctrl:        ctrl,
		client:      client,
		tickets:     tickets,
		checkpoints: checkpoints,
		auditLog:    auditLog,
		events:      events,
	}
}

type recordingNotifier struct {
	events []notify.Event
}

func (n *recordingNotifier) Notify(ctx context.Context, event notify.Event) error {
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) has(et notify.EventType) bool {
	for _, e := range n.events {
		if e.Type == et {
			return true
		}
	}
	return false
}

func TestCreate_MaxTurnsOverride(t *testing.T) {
	f := newFixture(t, true)
	WithMaxTurns(7)(f.ctrl)

	created, err := f.ctrl.Create(context.Background(), "Fix widget", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.MaxTurns != 7 {
		t.Errorf("MaxTurns = %d, want 7", created.MaxTurns)
	}
}

func TestRun_SuspendsForApproval(t *testing.T) {
	f := newFixture(t, true, planJSON)
	ctx := context.Background()

	created, err := f.ctrl.Create(ctx, "Fix widget", "widget is broken")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := f.ctrl.Run(ctx, created.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got.Status != ticket.StatusPendingApproval {
		t.Errorf("status = %q, want %q", got.Status, ticket.StatusPendingApproval)
	}
	if got.Plan == nil || got.Plan.Approved() {
		t.Errorf("plan = %+v, want generated and unapproved", got.Plan)
	}
	if got.PendingApproval == nil {
		t.Error("pendingApproval should be set")
	}
	if got.CurrentTurn != 1 {
		t.Errorf("currentTurn = %d, want 1", got.CurrentTurn)
	}
	if got.Tokens.Total == 0 {
		t.Error("token usage should accumulate")
	}
	if !f.events.has(notify.EventApprovalNeeded) {
		t.Error("approval_needed notification should be emitted")
	}
}

func TestRun_NoApproval_CompletesTicket(t *testing.T) {
	f := newFixture(t, false, planJSON, "did the step", agent.CompletionSentinel)
	ctx := context.Background()

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	got, err := f.ctrl.Run(ctx, created.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got.Status != ticket.StatusCompleted {
		t.Errorf("status = %q, want %q", got.Status, ticket.StatusCompleted)
	}
	if got.ResolvedAt == nil {
		t.Error("resolvedAt should be stamped on completion")
	}
	if got.Plan.Step(0).Status != ticket.StepCompleted {
		t.Errorf("step status = %q, want completed", got.Plan.Step(0).Status)
	}
	if !f.events.has(notify.EventTicketCompleted) {
		t.Error("ticket_completed notification should be emitted")
	}
}

func TestRun_PlanParseFailure_FailsTicket(t *testing.T) {
	f := newFixture(t, false, "definitely not json")
	ctx := context.Background()

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	got, err := f.ctrl.Run(ctx, created.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got.Status != ticket.StatusFailed {
		t.Errorf("status = %q, want %q", got.Status, ticket.StatusFailed)
	}
	if got.ResolvedAt == nil {
		t.Error("resolvedAt should be stamped on failure")
	}

	state, err := f.ctrl.GetState(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if !strings.Contains(state.Err, "parse plan JSON") {
		t.Errorf("state error = %q, want parse failure", state.Err)
	}
}

func TestRun_MaxTurnsExceeded(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	created.CurrentTurn = created.MaxTurns
	if err := f.tickets.Update(ctx, created); err != nil {
		t.Fatalf("Update: %v", err)
	}

	_, err := f.ctrl.Run(ctx, created.ID)
	if !aerrors.IsMaxTurnsExceeded(err) {
		t.Errorf("error = %v, want max turns exceeded", err)
	}
}

func TestResume_NoCheckpoint(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	_, err := f.ctrl.Resume(ctx, created.ID, agent.HumanInput{Type: agent.InputAnswer, Answer: "x"})
	if !aerrors.IsAgentNotRunning(err) {
		t.Errorf("error = %v, want agent not running", err)
	}
}

func TestResume_Approval_CompletesTicket(t *testing.T) {
	f := newFixture(t, true, planJSON)
	ctx := context.Background()

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	if _, err := f.ctrl.Run(ctx, created.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	f.client.Push(testutil.Respond("did the step"), testutil.Respond(agent.CompletionSentinel))
	got, err := f.ctrl.Resume(ctx, created.ID,
		agent.HumanInput{Type: agent.InputApproval, Approved: true, ApprovedBy: "alice"})
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}

	if got.Status != ticket.StatusCompleted {
		t.Errorf("status = %q, want %q", got.Status, ticket.StatusCompleted)
	}
	if !got.Plan.Approved() || got.Plan.ApprovedBy != "alice" {
		t.Errorf("plan approval = (%v, %q), want approved by alice", got.Plan.Approved(), got.Plan.ApprovedBy)
	}
	if got.PendingApproval == nil || got.PendingApproval.Approved == nil || !*got.PendingApproval.Approved {
		t.Error("pending approval should record the positive response")
	}
	if got.CurrentTurn != 2 {
		t.Errorf("currentTurn = %d, want 2", got.CurrentTurn)
	}
}

func TestResume_Denial_ReturnsTicketToDraft(t *testing.T) {
	f := newFixture(t, true, planJSON)
	ctx := context.Background()

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	if _, err := f.ctrl.Run(ctx, created.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := f.ctrl.Resume(ctx, created.ID,
		agent.HumanInput{Type: agent.InputApproval, Approved: false, Reason: "wrong direction"})
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}

	if got.Status != ticket.StatusDraft {
		t.Errorf("status = %q, want %q", got.Status, ticket.StatusDraft)
	}

	state, err := f.ctrl.GetState(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if !strings.Contains(state.Err, "rejected") {
		t.Errorf("state error = %q, want rejection", state.Err)
	}

	var sawRejection bool
	for _, e := range f.auditLog.ForTicket(created.ID) {
		if e.Action == audit.ActionPlanRejected {
			sawRejection = true
		}
	}
	if !sawRejection {
		t.Error("audit log should record the rejection")
	}
}

func TestResume_NoPendingApproval(t *testing.T) {
	f := newFixture(t, false, planJSON, "did the step", agent.CompletionSentinel)
	ctx := context.Background()

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	if _, err := f.ctrl.Run(ctx, created.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	_, err := f.ctrl.Resume(ctx, created.ID, agent.HumanInput{Type: agent.InputApproval, Approved: true})
	if !errors.Is(err, aerrors.ErrNoPendingApproval) {
		t.Errorf("error = %v, want no pending approval", err)
	}
}

func TestApprovePlan_ThenRun_SkipsReplanning(t *testing.T) {
	f := newFixture(t, true, planJSON)
	ctx := context.Background()

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	if _, err := f.ctrl.Run(ctx, created.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	approved, err := f.ctrl.ApprovePlan(ctx, created.ID, "bob")
	if err != nil {
		t.Fatalf("ApprovePlan: %v", err)
	}
	if approved.Status != ticket.StatusApproved {
		t.Errorf("status = %q, want %q", approved.Status, ticket.StatusApproved)
	}

	callsBefore := f.client.Calls()
	f.client.Push(testutil.Respond("did the step"), testutil.Respond(agent.CompletionSentinel))

	got, err := f.ctrl.Run(ctx, created.ID)
	if err != nil {
		t.Fatalf("Run after approval: %v", err)
	}
	if got.Status != ticket.StatusCompleted {
		t.Errorf("status = %q, want %q", got.Status, ticket.StatusCompleted)
	}
	// Execution and review only; planning must not run again.
	if got := f.client.Calls() - callsBefore; got != 2 {
		t.Errorf("reasoning calls after approval = %d, want 2", got)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t, true, planJSON)
	ctx := context.Background()

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	if _, err := f.ctrl.Run(ctx, created.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := f.ctrl.Cancel(ctx, created.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.Status != ticket.StatusCancelled {
		t.Errorf("status = %q, want %q", got.Status, ticket.StatusCancelled)
	}
	if got.ResolvedAt == nil {
		t.Error("resolvedAt should be stamped on cancellation")
	}

	if _, err := f.ctrl.GetState(ctx, created.ID); !errors.Is(err, checkpoint.ErrNotFound) {
		t.Errorf("GetState after cancel = %v, want checkpoint.ErrNotFound", err)
	}
	if !f.events.has(notify.EventTicketCancelled) {
		t.Error("cancellation notification should be emitted")
	}
}

func TestCancel_TerminalTicket_IsNoop(t *testing.T) {
	f := newFixture(t, false, planJSON, "did the step", agent.CompletionSentinel)
	ctx := context.Background()

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	if _, err := f.ctrl.Run(ctx, created.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := f.ctrl.Cancel(ctx, created.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.Status != ticket.StatusCompleted {
		t.Errorf("status = %q, want completed unchanged", got.Status)
	}
}

func TestTransitionStatus_Invalid(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	_, err := f.ctrl.TransitionStatus(ctx, created.ID, ticket.StatusCompleted)
	if !aerrors.IsInvalidTransition(err) {
		t.Errorf("error = %v, want invalid transition", err)
	}

	// Status and resolvedAt must be untouched after a rejected transition.
	got, _ := f.ctrl.Get(ctx, created.ID)
	if got.Status != ticket.StatusDraft {
		t.Errorf("status = %q, want draft unchanged", got.Status)
	}
	if got.ResolvedAt != nil {
		t.Error("resolvedAt should remain unset")
	}
}

func TestUpdatePlanStep(t *testing.T) {
	f := newFixture(t, true, planJSON)
	ctx := context.Background()

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	if _, err := f.ctrl.Run(ctx, created.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	status := ticket.StepSkipped
	got, err := f.ctrl.UpdatePlanStep(ctx, created.ID, 0, ticket.StepPatch{Status: &status})
	if err != nil {
		t.Fatalf("UpdatePlanStep: %v", err)
	}
	if got.Plan.Step(0).Status != ticket.StepSkipped {
		t.Errorf("step status = %q, want skipped", got.Plan.Step(0).Status)
	}

	_, err = f.ctrl.UpdatePlanStep(ctx, created.ID, 99, ticket.StepPatch{Status: &status})
	if !aerrors.IsValidation(err) {
		t.Errorf("error = %v, want validation error for bad index", err)
	}
}

func TestUpdatePlanStep_NoPlan(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	status := ticket.StepCompleted
	_, err := f.ctrl.UpdatePlanStep(ctx, created.ID, 0, ticket.StepPatch{Status: &status})
	if !errors.Is(err, aerrors.ErrNoPlan) {
		t.Errorf("error = %v, want no plan", err)
	}
}

func TestBudgets_MonotonicAcrossRuns(t *testing.T) {
	f := newFixture(t, true, planJSON)
	ctx := context.Background()

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	first, err := f.ctrl.Run(ctx, created.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	f.client.Push(testutil.Respond("did the step"), testutil.Respond(agent.CompletionSentinel))
	second, err := f.ctrl.Resume(ctx, created.ID,
		agent.HumanInput{Type: agent.InputApproval, Approved: true, ApprovedBy: "alice"})
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}

	if second.CurrentTurn <= first.CurrentTurn {
		t.Errorf("turns = %d then %d, want strictly increasing", first.CurrentTurn, second.CurrentTurn)
	}
	if second.Tokens.Total < first.Tokens.Total {
		t.Errorf("tokens = %d then %d, want non-decreasing", first.Tokens.Total, second.Tokens.Total)
	}
}

func TestGetCurrentStep_NonePending(t *testing.T) {
	f := newFixture(t, true, planJSON)
	ctx := context.Background()

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	if _, err := f.ctrl.Run(ctx, created.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	step, err := f.ctrl.GetCurrentStep(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetCurrentStep: %v", err)
	}
	if step != nil {
		t.Errorf("step = %+v, want nil while suspended pre-execution", step)
	}
}

func TestRun_WorkspaceBranchAndCommits(t *testing.T) {
	f := newFixture(t, false, planJSON, "step done", agent.CompletionSentinel)
	ctx := context.Background()

	created, _ := f.ctrl.Create(ctx, "Add caching", "cache hot paths")
	branch := git.DefaultBranchNamer().ForTicket(created.ID, created.Title)

	runner := git.NewMockRunner()
	runner.OnAnyCommand().Return("", nil)
	runner.OnCommand("git", "rev-parse", "--verify", branch).
		Return("", errors.New("unknown revision"))
	runner.OnCommand("git", "rev-list", "--reverse", "main.."+branch).
		Return("sha1\nsha2", nil)

	gc, err := git.NewContext(t.TempDir(), git.WithRunner(runner))
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	WithWorkspace(git.NewWorkspace(gc))(f.ctrl)

	got, err := f.ctrl.Run(ctx, created.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got.WorkingBranch != branch {
		t.Errorf("WorkingBranch = %q, want %q", got.WorkingBranch, branch)
	}
	if len(got.Commits) != 2 || got.Commits[0] != "sha1" {
		t.Errorf("Commits = %v, want [sha1 sha2]", got.Commits)
	}
	if !runner.WasCalled("git", "branch", branch) {
		t.Error("expected working branch to be created")
	}
}

type stubProvider struct {
	t   *ticket.Ticket
	err error
}

func (p *stubProvider) FetchTicket(ctx context.Context, ref string) (*ticket.Ticket, error) {
	return p.t, p.err
}

func TestImport(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	imported := ticket.New("Imported issue", "from github")
	imported.Source = "github"
	imported.SourceRef = "owner/repo#9"

	got, err := f.ctrl.Import(ctx, &stubProvider{t: imported}, "#9")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got.SourceRef != "owner/repo#9" {
		t.Errorf("SourceRef = %q, want %q", got.SourceRef, "owner/repo#9")
	}

	stored, err := f.ctrl.Get(ctx, got.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != ticket.StatusDraft {
		t.Errorf("Status = %q, want draft", stored.Status)
	}
}

func TestImport_FetchError(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.ctrl.Import(context.Background(), &stubProvider{err: errors.New("boom")}, "#9")
	if err == nil {
		t.Fatal("expected fetch error")
	}
}

func TestApprovePlanWithCredential(t *testing.T) {
	f := newFixture(t, true, planJSON)
	ctx := context.Background()

	approvers := auth.NewApprovers(auth.JWTConfig{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Issuer: "aura",
	})
	WithApprovers(approvers)(f.ctrl)

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	if _, err := f.ctrl.Run(ctx, created.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	token, err := approvers.IssueToken("alice@example.com")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	got, err := f.ctrl.ApprovePlanWithCredential(ctx, created.ID, token)
	if err != nil {
		t.Fatalf("ApprovePlanWithCredential: %v", err)
	}
	if got.Plan.ApprovedBy != "alice@example.com" {
		t.Errorf("ApprovedBy = %q, want verified subject", got.Plan.ApprovedBy)
	}
	if got.Status != ticket.StatusApproved {
		t.Errorf("Status = %q, want approved", got.Status)
	}
}

func TestApprovePlanWithCredential_BadCredential(t *testing.T) {
	f := newFixture(t, true, planJSON)
	ctx := context.Background()

	approvers := auth.NewApprovers(auth.JWTConfig{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
	})
	WithApprovers(approvers)(f.ctrl)

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	if _, err := f.ctrl.Run(ctx, created.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := f.ctrl.ApprovePlanWithCredential(ctx, created.ID, "garbage"); err == nil {
		t.Fatal("expected verification error")
	}

	stored, _ := f.ctrl.Get(ctx, created.ID)
	if stored.Plan.Approved() {
		t.Error("plan should stay unapproved after failed verification")
	}
}

func TestRun_RecordsTranscript(t *testing.T) {
	f := newFixture(t, false, planJSON, "step done", agent.CompletionSentinel)
	ctx := context.Background()

	store, err := transcript.NewFileStore(transcript.StoreConfig{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	WithTranscripts(store)(f.ctrl)

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	got, err := f.ctrl.Run(ctx, created.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	metas, err := store.List(transcript.ListFilter{TicketID: got.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("len(metas) = %d, want 1", len(metas))
	}
	if metas[0].Status != transcript.RunStatusCompleted {
		t.Errorf("run status = %q, want %q", metas[0].Status, transcript.RunStatusCompleted)
	}

	tr, err := store.Load(metas[0].RunID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tr.Turns) == 0 {
		t.Fatal("transcript has no turns")
	}
	found := false
	for _, turn := range tr.Turns {
		if turn.Role == "assistant" && strings.Contains(turn.Content, agent.CompletionSentinel) {
			found = true
		}
	}
	if !found {
		t.Error("transcript should record the completing assistant turn")
	}
}

func TestRun_FailedTicket_TranscriptMarkedFailed(t *testing.T) {
	f := newFixture(t, false, "this is not json")
	ctx := context.Background()

	store, err := transcript.NewFileStore(transcript.StoreConfig{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	WithTranscripts(store)(f.ctrl)

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	got, err := f.ctrl.Run(ctx, created.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.Status != ticket.StatusFailed {
		t.Fatalf("status = %q, want %q", got.Status, ticket.StatusFailed)
	}

	metas, err := store.List(transcript.ListFilter{TicketID: got.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("len(metas) = %d, want 1", len(metas))
	}
	if metas[0].Status != transcript.RunStatusFailed {
		t.Errorf("run status = %q, want %q", metas[0].Status, transcript.RunStatusFailed)
	}
	if metas[0].Error == "" {
		t.Error("failed run should record the workflow error")
	}
}

func TestTranscriptQueries(t *testing.T) {
	f := newFixture(t, false, planJSON, "added the limiter", agent.CompletionSentinel)
	ctx := context.Background()

	store, err := transcript.NewFileStore(transcript.StoreConfig{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	WithTranscripts(store)(f.ctrl)

	created, _ := f.ctrl.Create(ctx, "Add rate limiting", "")
	if _, err := f.ctrl.Run(ctx, created.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	runs, err := f.ctrl.TicketRuns(ctx, created.ID)
	if err != nil {
		t.Fatalf("TicketRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}

	tr, err := f.ctrl.LoadTranscript(ctx, runs[0].RunID)
	if err != nil {
		t.Fatalf("LoadTranscript: %v", err)
	}
	if len(tr.Turns) == 0 {
		t.Fatal("transcript has no turns")
	}

	results, err := f.ctrl.SearchTranscripts(ctx, "", "limiter", 0)
	if err != nil {
		t.Fatalf("SearchTranscripts: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("search found nothing")
	}
	if results[0].TicketID != created.ID {
		t.Errorf("TicketID = %q, want %q", results[0].TicketID, created.ID)
	}
}

func TestTranscriptQueries_Disabled(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	if _, err := f.ctrl.SearchTranscripts(ctx, "", "anything", 0); !errors.Is(err, aerrors.ErrTranscriptsDisabled) {
		t.Errorf("SearchTranscripts error = %v, want ErrTranscriptsDisabled", err)
	}
	if _, err := f.ctrl.TicketRuns(ctx, "tk-1"); !errors.Is(err, aerrors.ErrTranscriptsDisabled) {
		t.Errorf("TicketRuns error = %v, want ErrTranscriptsDisabled", err)
	}
}

func TestRun_QuestionSuspendsTicket(t *testing.T) {
	f := newFixture(t, false, planJSON, "QUESTION: which cache backend?")
	ctx := context.Background()

	created, _ := f.ctrl.Create(ctx, "Add caching", "")
	got, err := f.ctrl.Run(ctx, created.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got.Status != ticket.StatusAwaitingInput {
		t.Errorf("status = %q, want %q", got.Status, ticket.StatusAwaitingInput)
	}
	if got.PendingQuestion == nil {
		t.Fatal("pendingQuestion should be set")
	}
	if !strings.Contains(got.PendingQuestion.Text, "which cache backend?") {
		t.Errorf("question text = %q, want the model's question", got.PendingQuestion.Text)
	}
	if !f.events.has(notify.EventQuestionAsked) {
		t.Error("question_asked notification should be emitted")
	}
}

func TestAnswerQuestion_ResumesAndCompletes(t *testing.T) {
	f := newFixture(t, false, planJSON, "QUESTION: which cache backend?")
	ctx := context.Background()

	created, _ := f.ctrl.Create(ctx, "Add caching", "")
	if _, err := f.ctrl.Run(ctx, created.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	f.client.Push(testutil.Respond("used redis, step done"), testutil.Respond(agent.CompletionSentinel))
	got, err := f.ctrl.AnswerQuestion(ctx, created.ID, "use redis")
	if err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}

	if got.Status != ticket.StatusCompleted {
		t.Errorf("status = %q, want %q", got.Status, ticket.StatusCompleted)
	}
	if got.PendingQuestion == nil || got.PendingQuestion.AnsweredAt == nil {
		t.Error("pending question should be stamped answered")
	}
}

func TestAnswerQuestion_NoPending(t *testing.T) {
	f := newFixture(t, false, planJSON, "step done", agent.CompletionSentinel)
	ctx := context.Background()

	created, _ := f.ctrl.Create(ctx, "Fix widget", "")
	if _, err := f.ctrl.Run(ctx, created.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	_, err := f.ctrl.AnswerQuestion(ctx, created.ID, "nobody asked")
	if !errors.Is(err, aerrors.ErrNoPendingQuestion) {
		t.Errorf("err = %v, want ErrNoPendingQuestion", err)
	}
}
