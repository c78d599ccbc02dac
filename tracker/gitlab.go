package tracker

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/xanzy/go-gitlab"

	"github.com/morten-olsen/aura/ticket"
)

// GitLabProvider imports tickets from GitLab issues.
type GitLabProvider struct {
	client    *gitlab.Client
	projectID string // Numeric ID or "namespace/project"
}

// NewGitLabProvider creates a new GitLab provider.
// token is a personal access token. baseURL is the GitLab instance URL
// (empty for gitlab.com). projectID can be a numeric ID or
// "namespace/project" path.
func NewGitLabProvider(token, baseURL, projectID string) (*GitLabProvider, error) {
	if token == "" {
		return nil, fmt.Errorf("GitLab token is required")
	}
	if projectID == "" {
		return nil, fmt.Errorf("project ID is required")
	}

	var client *gitlab.Client
	var err error

	if baseURL != "" {
		client, err = gitlab.NewClient(token, gitlab.WithBaseURL(baseURL))
	} else {
		client, err = gitlab.NewClient(token)
	}
	if err != nil {
		return nil, fmt.Errorf("create GitLab client: %w", err)
	}

	return &GitLabProvider{
		client:    client,
		projectID: projectID,
	}, nil
}

// NewGitLabProviderFromURL creates a GitLab provider from a remote URL.
// Example: "https://gitlab.com/namespace/project.git"
func NewGitLabProviderFromURL(token, remoteURL string) (*GitLabProvider, error) {
	owner, repo, err := ParseRepoFromURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote URL: %w", err)
	}

	// Extract base URL for self-hosted instances
	var baseURL string
	if !strings.Contains(remoteURL, "gitlab.com") {
		remoteURL = strings.TrimPrefix(remoteURL, "https://")
		remoteURL = strings.TrimPrefix(remoteURL, "http://")
		parts := strings.Split(remoteURL, "/")
		if len(parts) > 0 {
			baseURL = "https://" + parts[0]
		}
	}

	return NewGitLabProvider(token, baseURL, owner+"/"+repo)
}

// FetchTicket retrieves a GitLab issue and converts it into a draft ticket.
func (p *GitLabProvider) FetchTicket(ctx context.Context, ref string) (*ticket.Ticket, error) {
	iid, err := parseIssueNumber(ref)
	if err != nil {
		return nil, err
	}

	issue, resp, err := p.client.Issues.GetIssue(p.projectID, iid, gitlab.WithContext(ctx))
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s#%d: %w", p.projectID, iid, ErrIssueNotFound)
		}
		return nil, fmt.Errorf("get issue: %w", err)
	}

	labels := append([]string(nil), issue.Labels...)
	sourceRef := fmt.Sprintf("%s#%d", p.projectID, iid)
	return importTicket("gitlab", sourceRef, issue.Title, issue.Description, labels), nil
}
