package tracker

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/morten-olsen/aura/ticket"
)

// GitHubProvider imports tickets from GitHub issues.
type GitHubProvider struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubProvider creates a new GitHub provider.
// token is a personal access token or GitHub App token.
func NewGitHubProvider(token, owner, repo string) (*GitHubProvider, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token is required")
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo are required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)

	return &GitHubProvider{
		client: github.NewClient(tc),
		owner:  owner,
		repo:   repo,
	}, nil
}

// NewGitHubProviderFromURL creates a GitHub provider from a remote URL.
// Example: "https://github.com/morten-olsen/aura.git"
func NewGitHubProviderFromURL(token, remoteURL string) (*GitHubProvider, error) {
	owner, repo, err := ParseRepoFromURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote URL: %w", err)
	}
	return NewGitHubProvider(token, owner, repo)
}

// FetchTicket retrieves a GitHub issue and converts it into a draft ticket.
func (p *GitHubProvider) FetchTicket(ctx context.Context, ref string) (*ticket.Ticket, error) {
	number, err := parseIssueNumber(ref)
	if err != nil {
		return nil, err
	}

	issue, resp, err := p.client.Issues.Get(ctx, p.owner, p.repo, number)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s#%d: %w", p.repo, number, ErrIssueNotFound)
		}
		return nil, fmt.Errorf("get issue: %w", err)
	}

	var labels []string
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}

	sourceRef := fmt.Sprintf("%s/%s#%d", p.owner, p.repo, number)
	return importTicket("github", sourceRef, issue.GetTitle(), issue.GetBody(), labels), nil
}
