package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/morten-olsen/aura/agent"
	"github.com/morten-olsen/aura/audit"
	"github.com/morten-olsen/aura/auth"
	"github.com/morten-olsen/aura/checkpoint"
	"github.com/morten-olsen/aura/git"
	"github.com/morten-olsen/aura/notify"
	"github.com/morten-olsen/aura/ticket"
	"github.com/morten-olsen/aura/tracker"
	"github.com/morten-olsen/aura/transcript"
)

// Controller owns the user-facing ticket lifecycle. It drives the workflow
// engine, validates every status change against the transition table, and
// enforces turn and token budgets. The engine never writes tickets; all
// ticket mutation happens here.
type Controller struct {
	tickets     ticket.Store
	checkpoints checkpoint.Store
	engine      *agent.Engine
	auditLog    audit.Log
	notifier    notify.Notifier
	workspace   *git.Workspace
	approvers   *auth.Approvers
	transcripts transcript.Manager
	logger      *slog.Logger

	// approvalRequired is the policy applied to newly started workflows.
	approvalRequired bool

	// maxTurns, when positive, overrides the default turn budget on
	// tickets created through this controller.
	maxTurns int

	// locks serializes run/resume/cancel per ticket id. Two concurrent
	// invocations for the same ticket would interleave checkpoint upserts.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Controller.
type Option func(*Controller)

// WithAudit sets the audit log.
func WithAudit(log audit.Log) Option {
	return func(c *Controller) {
		c.auditLog = log
	}
}

// WithNotifier sets the lifecycle-event notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithApprovers sets the credential verifier used by
// ApprovePlanWithCredential. Without it, approvals take the approver name
// as given.
func WithApprovers(a *auth.Approvers) Option {
	return func(c *Controller) {
		c.approvers = a
	}
}

// WithWorkspace sets the git workspace. When present, starting a ticket
// checks out its working branch and finishing a run records the commits
// made on it.
func WithWorkspace(ws *git.Workspace) Option {
	return func(c *Controller) {
		c.workspace = ws
	}
}

// WithTranscripts sets the transcript store. Each run is recorded as a
// transcript keyed by ticket and turn; recording never feeds back into the
// workflow, failures are logged and the run proceeds.
func WithTranscripts(m transcript.Manager) Option {
	return func(c *Controller) {
		c.transcripts = m
	}
}

// WithMaxTurns sets the turn budget stamped on newly created tickets.
// Zero keeps the ticket default.
func WithMaxTurns(n int) Option {
	return func(c *Controller) {
		c.maxTurns = n
	}
}

// WithApprovalRequired sets whether new workflows suspend for plan approval.
// Default is true.
func WithApprovalRequired(required bool) Option {
	return func(c *Controller) {
		c.approvalRequired = required
	}
}

// New creates a lifecycle controller.
func New(tickets ticket.Store, checkpoints checkpoint.Store, engine *agent.Engine, opts ...Option) *Controller {
	c := &Controller{
		tickets:          tickets,
		checkpoints:      checkpoints,
		engine:           engine,
		auditLog:         audit.NewMemoryLog(),
		notifier:         notify.NopNotifier{},
		logger:           slog.Default(),
		approvalRequired: true,
		locks:            make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// lock acquires the per-ticket mutex and returns its unlock func.
func (c *Controller) lock(id string) func() {
	c.mu.Lock()
	m, ok := c.locks[id]
	if !ok {
		m = &sync.Mutex{}
		c.locks[id] = m
	}
	c.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Create stores a new draft ticket.
func (c *Controller) Create(ctx context.Context, title, description string) (*ticket.Ticket, error) {
	t := ticket.New(title, description)
	if c.maxTurns > 0 {
		t.MaxTurns = c.maxTurns
	}
	if err := c.tickets.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	c.append(ctx, audit.Entry{TicketID: t.ID, Actor: "system", Action: audit.ActionCreated, Detail: title})
	c.logger.Info("ticket created", "ticket", t.ID, "title", title)
	return t, nil
}

// Import fetches an issue from an external tracker and stores it as a
// draft ticket.
func (c *Controller) Import(ctx context.Context, provider tracker.Provider, ref string) (*ticket.Ticket, error) {
	t, err := provider.FetchTicket(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}
	if err := c.tickets.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	c.append(ctx, audit.Entry{TicketID: t.ID, Actor: "system", Action: audit.ActionCreated, Detail: "imported " + t.SourceRef})
	c.logger.Info("ticket imported", "ticket", t.ID, "source", t.Source, "ref", t.SourceRef)
	return t, nil
}

// Get returns a ticket by id.
func (c *Controller) Get(ctx context.Context, id string) (*ticket.Ticket, error) {
	return c.tickets.Get(ctx, id)
}

// List returns all tickets.
func (c *Controller) List(ctx context.Context) ([]*ticket.Ticket, error) {
	return c.tickets.List(ctx)
}

// GetState returns the latest checkpointed workflow state for a ticket.
func (c *Controller) GetState(ctx context.Context, id string) (*agent.State, error) {
	return c.engine.Latest(ctx, id)
}

// append writes an audit entry, logging rather than failing on error: the
// lifecycle action itself has already happened.
func (c *Controller) append(ctx context.Context, entry audit.Entry) {
	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}
	if err := c.auditLog.Append(ctx, entry); err != nil {
		c.logger.Warn("audit append failed", "ticket", entry.TicketID, "action", entry.Action, "error", err)
	}
}

// emit sends a lifecycle notification, logging rather than failing on error.
func (c *Controller) emit(ctx context.Context, event notify.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Severity == "" {
		event.Severity = notify.SeverityInfo
	}
	if err := c.notifier.Notify(ctx, event); err != nil {
		c.logger.Warn("notification failed", "ticket", event.TicketID, "type", event.Type, "error", err)
	}
}
