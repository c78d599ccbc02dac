package git

import (
	"strings"
)

// Workspace ties a repository checkout to ticket work. It creates the
// ticket's working branch and reports the commits made on it so callers
// can record them against the ticket.
type Workspace struct {
	git   *Context
	namer *BranchNamer
	base  string
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*Workspace)

// WithBaseBranch sets the branch commits are counted against.
// Default is "main".
func WithBaseBranch(base string) WorkspaceOption {
	return func(w *Workspace) {
		w.base = base
	}
}

// WithBranchNamer sets the namer used for ticket branches.
func WithBranchNamer(n *BranchNamer) WorkspaceOption {
	return func(w *Workspace) {
		w.namer = n
	}
}

// NewWorkspace creates a workspace around an existing git context.
func NewWorkspace(gc *Context, opts ...WorkspaceOption) *Workspace {
	w := &Workspace{
		git:   gc,
		namer: DefaultBranchNamer(),
		base:  "main",
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Git returns the underlying git context.
func (w *Workspace) Git() *Context {
	return w.git
}

// EnsureBranch checks out the working branch for the ticket, creating it
// if it does not exist yet. Returns the branch name.
func (w *Workspace) EnsureBranch(ticketID, title string) (string, error) {
	branch := w.namer.ForTicket(ticketID, title)
	if w.git.BranchExists(branch) {
		if err := w.git.Checkout(branch); err != nil {
			return "", err
		}
		return branch, nil
	}
	if err := w.git.CheckoutNew(branch); err != nil {
		return "", err
	}
	return branch, nil
}

// Commits returns the SHAs of commits on branch that are not on the base
// branch, oldest first.
func (w *Workspace) Commits(branch string) ([]string, error) {
	out, err := w.git.runGit("rev-list", "--reverse", w.base+".."+branch)
	if err != nil {
		return nil, &Error{Op: "list commits", Err: err}
	}
	if out == "" {
		return nil, nil
	}
	var shas []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			shas = append(shas, line)
		}
	}
	return shas, nil
}

// CommitStep stages everything and commits it as work on a ticket step,
// using a conventional commit message with the ticket reference attached.
func (w *Workspace) CommitStep(typ CommitType, subject, ticketID string) (*CommitResult, error) {
	msg := NewCommitMessage(typ, subject).WithTicketRef(ticketID)
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return w.git.CommitAll(msg.String())
}
