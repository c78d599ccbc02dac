package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/morten-olsen/aura/agent"
	"github.com/morten-olsen/aura/audit"
	aerrors "github.com/morten-olsen/aura/errors"
	"github.com/morten-olsen/aura/notify"
	"github.com/morten-olsen/aura/ticket"
)

// TransitionStatus moves a ticket to target, validated against the
// transition table.
func (c *Controller) TransitionStatus(ctx context.Context, id string, target ticket.Status) (*ticket.Ticket, error) {
	unlock := c.lock(id)
	defer unlock()

	t, err := c.tickets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := t.Status
	if err := t.Transition(target); err != nil {
		return nil, err
	}
	if err := c.tickets.Update(ctx, t); err != nil {
		return nil, err
	}
	c.append(ctx, audit.Entry{
		TicketID: id, Action: audit.ActionTransition,
		Detail: fmt.Sprintf("%s -> %s", from, target),
	})
	return t, nil
}

// ApprovePlan records a plan approval on the ticket and moves it to
// approved. The next Run resumes execution from the approved plan.
func (c *Controller) ApprovePlan(ctx context.Context, id, approvedBy string) (*ticket.Ticket, error) {
	unlock := c.lock(id)
	defer unlock()

	t, err := c.tickets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Plan == nil {
		return nil, fmt.Errorf("ticket %s: %w", id, aerrors.ErrNoPlan)
	}
	if t.PendingApproval == nil {
		return nil, fmt.Errorf("ticket %s: %w", id, aerrors.ErrNoPendingApproval)
	}

	now := time.Now()
	approved := true
	t.PendingApproval.RespondedAt = &now
	t.PendingApproval.Approved = &approved
	t.PendingApproval.ApprovedBy = approvedBy
	t.Plan.Approve(approvedBy)

	if t.Status == ticket.StatusPendingApproval {
		if err := t.Transition(ticket.StatusApproved); err != nil {
			return nil, err
		}
	}
	if err := c.tickets.Update(ctx, t); err != nil {
		return nil, err
	}
	c.append(ctx, audit.Entry{TicketID: id, Actor: approvedBy, Action: audit.ActionPlanApproved})
	c.logger.Info("plan approved", "ticket", id, "by", approvedBy)
	return t, nil
}

// ApprovePlanWithCredential verifies the approver credential (JWT or API
// key) and approves the plan with the verified subject. Requires a
// configured auth.Approvers.
func (c *Controller) ApprovePlanWithCredential(ctx context.Context, id, credential string) (*ticket.Ticket, error) {
	if c.approvers == nil {
		return nil, fmt.Errorf("ticket %s: no approver verifier configured", id)
	}
	subject, err := c.approvers.Verify(credential)
	if err != nil {
		return nil, fmt.Errorf("verify approver: %w", err)
	}
	return c.ApprovePlan(ctx, id, subject)
}

// RejectPlan denies a pending plan approval and drives the workflow to its
// rejected terminal state. It wraps Resume with a denial input.
func (c *Controller) RejectPlan(ctx context.Context, id, rejectedBy, reason string) (*ticket.Ticket, error) {
	return c.Resume(ctx, id, agent.HumanInput{
		Type:       agent.InputApproval,
		Approved:   false,
		ApprovedBy: rejectedBy,
		Reason:     reason,
	})
}

// AnswerQuestion delivers an answer to a ticket suspended on a question.
// It wraps Resume with an answer input.
func (c *Controller) AnswerQuestion(ctx context.Context, id, answer string) (*ticket.Ticket, error) {
	return c.Resume(ctx, id, agent.HumanInput{
		Type:   agent.InputAnswer,
		Answer: answer,
	})
}

// Cancel deletes every checkpoint for the ticket and force-transitions it to
// cancelled. Cancelling an already-terminal ticket is a no-op, not an error.
func (c *Controller) Cancel(ctx context.Context, id string) (*ticket.Ticket, error) {
	unlock := c.lock(id)
	defer unlock()

	t, err := c.tickets.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.checkpoints.DeleteAll(ctx, id); err != nil {
		return nil, fmt.Errorf("delete checkpoints for %s: %w", id, err)
	}

	if err := t.Transition(ticket.StatusCancelled); err != nil {
		var invalid *aerrors.InvalidTransitionError
		if !errors.As(err, &invalid) {
			return nil, err
		}
		// Already terminal; nothing to change.
		return t, nil
	}
	if err := c.tickets.Update(ctx, t); err != nil {
		return nil, err
	}

	c.append(ctx, audit.Entry{TicketID: id, Action: audit.ActionCancelled})
	c.emit(ctx, notify.Event{
		Type: notify.EventTicketCancelled, TicketID: id, Status: string(t.Status),
		Message: "ticket cancelled: " + t.Title, Severity: notify.SeverityWarning,
	})
	return t, nil
}

// UpdatePlanStep merges partial fields into one plan step.
func (c *Controller) UpdatePlanStep(ctx context.Context, id string, index int, patch ticket.StepPatch) (*ticket.Ticket, error) {
	unlock := c.lock(id)
	defer unlock()

	t, err := c.tickets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.ApplyStepPatch(index, patch); err != nil {
		return nil, err
	}
	if err := c.tickets.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetCurrentStep returns the single in-progress step, or nil when no step
// is running.
func (c *Controller) GetCurrentStep(ctx context.Context, id string) (*ticket.Step, error) {
	t, err := c.tickets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Plan == nil {
		return nil, nil
	}
	return t.Plan.InProgressStep(), nil
}
