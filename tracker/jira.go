package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/morten-olsen/aura/jira"
	"github.com/morten-olsen/aura/ticket"
)

// JiraProvider imports tickets from Jira issues.
type JiraProvider struct {
	client *jira.Client
}

// NewJiraProvider creates a provider backed by the Jira REST client.
func NewJiraProvider(cfg *jira.Config, opts ...jira.ClientOption) (*JiraProvider, error) {
	client, err := jira.NewClient(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("create Jira client: %w", err)
	}
	return &JiraProvider{client: client}, nil
}

// FetchTicket retrieves a Jira issue by key (e.g. "PROJ-42") and converts
// it into a draft ticket.
func (p *JiraProvider) FetchTicket(ctx context.Context, ref string) (*ticket.Ticket, error) {
	key := strings.ToUpper(strings.TrimSpace(ref))
	if !jira.ValidateIssueKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrBadRef, ref)
	}

	issue, err := p.client.GetIssue(ctx, key)
	if err != nil {
		if jira.IsNotFound(err) {
			return nil, fmt.Errorf("%s: %w", key, ErrIssueNotFound)
		}
		return nil, fmt.Errorf("get issue: %w", err)
	}

	// Description is ADF on Cloud, plain text on Server.
	description, err := jira.NewADFConverter().FromADFAny(issue.Fields.Description)
	if err != nil {
		description = ""
	}

	return importTicket("jira", issue.Key, issue.Fields.Summary, description, issue.Fields.Labels), nil
}
