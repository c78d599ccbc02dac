package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/morten-olsen/aura/agent"
	"github.com/morten-olsen/aura/audit"
	"github.com/morten-olsen/aura/checkpoint"
	aerrors "github.com/morten-olsen/aura/errors"
	"github.com/morten-olsen/aura/git"
	"github.com/morten-olsen/aura/notify"
	"github.com/morten-olsen/aura/ticket"
	"github.com/morten-olsen/aura/transcript"
)

// Run drives a ticket's workflow for one turn: to completion, to a human
// checkpoint, or to a terminal failure. A ticket whose plan is already
// approved resumes straight into execution; it is never re-planned.
func (c *Controller) Run(ctx context.Context, id string) (*ticket.Ticket, error) {
	unlock := c.lock(id)
	defer unlock()

	t, err := c.tickets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.CurrentTurn >= t.MaxTurns {
		return nil, fmt.Errorf("ticket %s: %w", id, aerrors.ErrMaxTurnsExceeded)
	}

	if err := c.markRunning(t); err != nil {
		return nil, err
	}
	c.checkoutBranch(t)
	c.append(ctx, audit.Entry{TicketID: id, Actor: "system", Action: audit.ActionRunStarted})
	c.emit(ctx, notify.Event{
		Type: notify.EventRunStarted, TicketID: id, Status: string(t.Status),
		Message: "run started: " + t.Title,
	})

	result, err := c.invoke(ctx, t)
	if err != nil {
		return nil, err
	}
	return c.applyResult(ctx, t, result)
}

// Resume delivers human input to a suspended ticket and drives the workflow
// onward. It fails with ErrAgentNotRunning when no checkpoint exists: only
// the input comes from the caller, the rest of the state from the store.
func (c *Controller) Resume(ctx context.Context, id string, input agent.HumanInput) (*ticket.Ticket, error) {
	unlock := c.lock(id)
	defer unlock()

	t, err := c.tickets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.CurrentTurn >= t.MaxTurns {
		return nil, fmt.Errorf("ticket %s: %w", id, aerrors.ErrMaxTurnsExceeded)
	}
	if _, err := c.engine.Latest(ctx, id); err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return nil, fmt.Errorf("ticket %s: %w", id, aerrors.ErrAgentNotRunning)
		}
		return nil, err
	}

	if err := c.recordInput(ctx, t, &input); err != nil {
		return nil, err
	}

	result, err := c.engine.Resume(ctx, id, &input)
	if err != nil {
		return nil, err
	}
	return c.applyResult(ctx, t, result)
}

// markRunning moves a runnable ticket to in_progress, walking the approval
// states for tickets that skip manual approval. Tickets already in progress
// (for example after a crash mid-run) are left as they are; a draft ticket
// that still needs plan approval stays draft until the plan suspends.
func (c *Controller) markRunning(t *ticket.Ticket) error {
	switch t.Status {
	case ticket.StatusInProgress:
		return nil
	case ticket.StatusApproved, ticket.StatusAwaitingInput, ticket.StatusPaused:
		return t.Transition(ticket.StatusInProgress)
	case ticket.StatusDraft:
		if c.approvalRequired && !t.Plan.Approved() {
			return nil
		}
		for _, s := range []ticket.Status{ticket.StatusPendingApproval, ticket.StatusApproved, ticket.StatusInProgress} {
			if err := t.Transition(s); err != nil {
				return err
			}
		}
		return nil
	case ticket.StatusPendingApproval:
		if t.Plan.Approved() {
			if err := t.Transition(ticket.StatusApproved); err != nil {
				return err
			}
			return t.Transition(ticket.StatusInProgress)
		}
		return nil
	}
	return &aerrors.InvalidTransitionError{From: string(t.Status), To: string(ticket.StatusInProgress)}
}

// invoke picks the engine entry point for the ticket's situation.
func (c *Controller) invoke(ctx context.Context, t *ticket.Ticket) (*agent.Result, error) {
	state, err := c.engine.Latest(ctx, t.ID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return c.engine.Run(ctx, agent.NewState(t, c.approvalRequired))
	}
	if err != nil {
		return nil, err
	}

	if t.Plan.Approved() && !state.Plan.Approved() {
		// Approved out of band while suspended: resume through the
		// explicit approval entry point, never by re-planning.
		return c.engine.ResumeFromApprovedPlan(ctx, t.ID, t.Plan.ApprovedBy)
	}
	return c.engine.Resume(ctx, t.ID, nil)
}

// applyResult maps the engine outcome onto the ticket: status, budgets,
// plan, and pending human checkpoints.
func (c *Controller) applyResult(ctx context.Context, t *ticket.Ticket, result *agent.Result) (*ticket.Ticket, error) {
	s := result.State

	t.CurrentTurn++
	t.AddTokens(result.Usage)
	t.Plan = s.Plan.Clone()

	switch {
	case s.Phase == agent.PhaseCompleted && s.Failed():
		if err := t.Transition(ticket.StatusFailed); err != nil {
			if !aerrors.IsInvalidTransition(err) {
				return nil, err
			}
			// A workflow can fail before the ticket ever ran, e.g. a
			// rejected plan. Those tickets go back to draft where the
			// table allows it.
			if ticket.CanTransition(t.Status, ticket.StatusDraft) {
				if err := t.Transition(ticket.StatusDraft); err != nil {
					return nil, err
				}
			}
		}
		c.emit(ctx, notify.Event{
			Type: notify.EventTicketFailed, TicketID: t.ID, Status: string(t.Status),
			Message: s.Err, Severity: notify.SeverityError,
		})

	case s.Phase == agent.PhaseCompleted:
		if err := t.Transition(ticket.StatusCompleted); err != nil {
			return nil, err
		}
		c.emit(ctx, notify.Event{
			Type: notify.EventTicketCompleted, TicketID: t.ID, Status: string(t.Status),
			Message: "ticket completed: " + t.Title,
		})

	case s.Phase == agent.PhaseWaiting && s.WaitingFor == agent.WaitApproval && !s.Plan.Approved():
		if t.Status != ticket.StatusPendingApproval {
			if err := t.Transition(ticket.StatusPendingApproval); err != nil {
				return nil, err
			}
		}
		if t.PendingApproval == nil {
			t.PendingApproval = &ticket.Approval{
				ID:          newCheckpointRequestID("appr"),
				Reason:      "plan requires approval",
				RequestedAt: time.Now(),
			}
		}
		c.emit(ctx, notify.Event{
			Type: notify.EventApprovalNeeded, TicketID: t.ID, Status: string(t.Status),
			Message: "plan ready for approval: " + t.Title,
		})

	case s.Phase == agent.PhaseWaiting:
		if t.Status != ticket.StatusAwaitingInput {
			if err := t.Transition(ticket.StatusAwaitingInput); err != nil {
				return nil, err
			}
		}
		if s.WaitingFor == agent.WaitAnswer && t.PendingQuestion == nil {
			t.PendingQuestion = &ticket.Question{
				ID:      newCheckpointRequestID("q"),
				Text:    lastAssistantContent(s),
				AskedAt: time.Now(),
			}
		}
		c.emit(ctx, notify.Event{
			Type: notify.EventQuestionAsked, TicketID: t.ID, Status: string(t.Status),
			Message: "ticket needs input: " + t.Title, Severity: notify.SeverityWarning,
		})

	default:
		// Phase budget exhausted mid-execution: the ticket stays
		// in_progress and the next run picks up from the checkpoint.
	}

	c.commitWork(t, s)
	c.recordCommits(t)
	c.recordTranscript(t, result)

	if err := c.tickets.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("persist ticket %s: %w", t.ID, err)
	}

	c.append(ctx, audit.Entry{
		TicketID: t.ID, Actor: "system", Action: audit.ActionRunFinished,
		Detail: fmt.Sprintf("phase=%s status=%s turn=%d", s.Phase, t.Status, t.CurrentTurn),
	})
	c.logger.Info("run finished",
		"ticket", t.ID, "phase", string(s.Phase), "status", string(t.Status),
		"turn", t.CurrentTurn, "tokens", t.Tokens.Total)
	return t, nil
}

// recordInput validates human input against the ticket's pending checkpoint
// and stamps the response before the engine consumes it.
func (c *Controller) recordInput(ctx context.Context, t *ticket.Ticket, input *agent.HumanInput) error {
	now := time.Now()
	switch input.Type {
	case agent.InputApproval:
		if t.PendingApproval == nil {
			return fmt.Errorf("ticket %s: %w", t.ID, aerrors.ErrNoPendingApproval)
		}
		approved := input.Approved
		t.PendingApproval.RespondedAt = &now
		t.PendingApproval.Approved = &approved
		t.PendingApproval.ApprovedBy = input.ApprovedBy

		if approved {
			if t.Plan != nil && !t.Plan.Approved() {
				t.Plan.Approve(input.ApprovedBy)
			}
			if t.Status == ticket.StatusPendingApproval {
				if err := t.Transition(ticket.StatusApproved); err != nil {
					return err
				}
				if err := t.Transition(ticket.StatusInProgress); err != nil {
					return err
				}
			}
			c.append(ctx, audit.Entry{TicketID: t.ID, Actor: input.ApprovedBy, Action: audit.ActionPlanApproved})
		} else {
			c.append(ctx, audit.Entry{TicketID: t.ID, Actor: input.ApprovedBy, Action: audit.ActionPlanRejected, Detail: input.Reason})
		}
		return nil

	case agent.InputAnswer:
		if t.PendingQuestion == nil {
			return fmt.Errorf("ticket %s: %w", t.ID, aerrors.ErrNoPendingQuestion)
		}
		t.PendingQuestion.Answer = input.Answer
		t.PendingQuestion.AnsweredAt = &now
		if t.Status == ticket.StatusAwaitingInput {
			if err := t.Transition(ticket.StatusInProgress); err != nil {
				return err
			}
		}
		c.append(ctx, audit.Entry{TicketID: t.ID, Action: audit.ActionAnswered})
		return nil
	}
	return aerrors.NewValidation("type", fmt.Sprintf("unknown input type %q", input.Type))
}

// lastAssistantContent returns the most recent assistant message, used as
// the question text when the workflow suspends for an answer.
func lastAssistantContent(s *agent.State) string {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == "assistant" {
			return s.History[i].Content
		}
	}
	return ""
}

// checkoutBranch makes sure the ticket's working branch exists and is
// checked out. Branch failures are logged, not fatal: a run without a
// repository still makes progress.
func (c *Controller) checkoutBranch(t *ticket.Ticket) {
	if c.workspace == nil {
		return
	}
	branch, err := c.workspace.EnsureBranch(t.ID, t.Title)
	if err != nil {
		c.logger.Warn("working branch unavailable", "ticket", t.ID, "err", err)
		return
	}
	t.WorkingBranch = branch
}

// commitWork commits whatever the run left in the working tree, attributed
// to the step that produced it. Like checkoutBranch, failures are logged
// and the run result stands; a clean tree is not an error.
func (c *Controller) commitWork(t *ticket.Ticket, s *agent.State) {
	if c.workspace == nil || t.WorkingBranch == "" {
		return
	}
	subject := t.Title
	if step := s.Plan.Step(s.CurrentStepIndex - 1); step != nil {
		subject = step.Title
	}
	if _, err := c.workspace.CommitStep(git.CommitTypeFeat, subject, t.ID); err != nil {
		if errors.Is(err, git.ErrNothingToCommit) {
			return
		}
		c.logger.Warn("committing step work failed", "ticket", t.ID, "err", err)
	}
}

// recordCommits refreshes the ticket's commit list from its working branch.
func (c *Controller) recordCommits(t *ticket.Ticket) {
	if c.workspace == nil || t.WorkingBranch == "" {
		return
	}
	commits, err := c.workspace.Commits(t.WorkingBranch)
	if err != nil {
		c.logger.Warn("listing branch commits failed", "ticket", t.ID, "err", err)
		return
	}
	t.Commits = commits
}

// recordTranscript writes the run's conversation to the transcript store.
// Transcripts are an audit artifact, never workflow state; failures are
// logged and the run result stands.
func (c *Controller) recordTranscript(t *ticket.Ticket, result *agent.Result) {
	if c.transcripts == nil {
		return
	}
	s := result.State
	runID := fmt.Sprintf("%s-turn-%d", t.ID, t.CurrentTurn)

	if err := c.transcripts.StartRun(runID, transcript.RunMetadata{
		TicketID: t.ID,
		Phase:    string(s.Phase),
	}); err != nil {
		c.logger.Warn("transcript start failed", "ticket", t.ID, "run", runID, "err", err)
		return
	}

	for i, m := range s.History {
		turn := transcript.Turn{Role: m.Role, Content: m.Content}
		if m.ToolName != "" {
			turn.ToolCalls = []transcript.ToolCall{{
				ID:     m.ToolCallID,
				Name:   m.ToolName,
				Output: m.Content,
			}}
		}
		if i == 0 {
			turn.TokensIn = result.Usage.Input
		}
		if i == len(s.History)-1 && m.Role == "assistant" {
			turn.TokensOut = result.Usage.Output
		}
		if err := c.transcripts.RecordTurn(runID, turn); err != nil {
			c.logger.Warn("transcript turn failed", "ticket", t.ID, "run", runID, "err", err)
		}
	}

	var err error
	if s.Phase == agent.PhaseCompleted && s.Failed() {
		err = c.transcripts.EndRunWithError(runID, errors.New(s.Err))
	} else {
		err = c.transcripts.EndRun(runID, transcript.RunStatusCompleted)
	}
	if err != nil {
		c.logger.Warn("transcript end failed", "ticket", t.ID, "run", runID, "err", err)
	}
}

func newCheckpointRequestID(prefix string) string {
	id, err := gonanoid.New(10)
	if err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return prefix + "-" + id
}
