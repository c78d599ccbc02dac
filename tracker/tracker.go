package tracker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/morten-olsen/aura/ticket"
)

// Provider fetches tickets from an external issue tracker. Implementations
// exist for GitHub, GitLab, and Jira.
type Provider interface {
	// FetchTicket retrieves the referenced issue and converts it into a
	// draft ticket. The ref format is provider-specific: an issue number
	// for GitHub and GitLab ("123" or "#123"), an issue key for Jira
	// ("PROJ-42").
	FetchTicket(ctx context.Context, ref string) (*ticket.Ticket, error)
}

// Tracker errors.
var (
	// ErrIssueNotFound indicates the referenced issue does not exist.
	ErrIssueNotFound = errors.New("issue not found")

	// ErrBadRef indicates the issue reference could not be parsed.
	ErrBadRef = errors.New("invalid issue reference")

	// ErrUnknownProvider indicates the remote URL uses an unknown tracker.
	ErrUnknownProvider = errors.New("unknown tracker provider")
)

// importTicket builds a draft ticket from imported issue data.
func importTicket(source, ref, title, description string, labels []string) *ticket.Ticket {
	t := ticket.New(title, description)
	t.Source = source
	t.SourceRef = ref
	t.Labels = labels
	return t
}

// parseIssueNumber parses refs like "123", "#123", or "owner/repo#123".
func parseIssueNumber(ref string) (int, error) {
	if i := strings.LastIndex(ref, "#"); i >= 0 {
		ref = ref[i+1:]
	}
	n, err := strconv.Atoi(strings.TrimSpace(ref))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadRef, ref)
	}
	return n, nil
}

// DetectProvider attempts to detect the tracker provider from a remote URL.
func DetectProvider(remoteURL string) (string, error) {
	remoteURL = strings.ToLower(remoteURL)

	if strings.Contains(remoteURL, "github.com") {
		return "github", nil
	}
	if strings.Contains(remoteURL, "gitlab.com") || strings.Contains(remoteURL, "gitlab") {
		return "gitlab", nil
	}
	if strings.Contains(remoteURL, "atlassian.net") || strings.Contains(remoteURL, "jira") {
		return "jira", nil
	}

	return "", ErrUnknownProvider
}

// ParseRepoFromURL extracts owner and repo from a git remote URL.
func ParseRepoFromURL(remoteURL string) (owner, repo string, err error) {
	// Handle SSH URLs: git@github.com:owner/repo.git
	if strings.HasPrefix(remoteURL, "git@") {
		parts := strings.Split(remoteURL, ":")
		if len(parts) != 2 {
			return "", "", fmt.Errorf("invalid SSH URL format")
		}
		path := strings.TrimSuffix(parts[1], ".git")
		pathParts := strings.Split(path, "/")
		if len(pathParts) != 2 {
			return "", "", fmt.Errorf("invalid repository path")
		}
		return pathParts[0], pathParts[1], nil
	}

	// Handle HTTPS URLs: https://github.com/owner/repo.git
	remoteURL = strings.TrimPrefix(remoteURL, "https://")
	remoteURL = strings.TrimPrefix(remoteURL, "http://")
	remoteURL = strings.TrimSuffix(remoteURL, ".git")

	parts := strings.Split(remoteURL, "/")
	if len(parts) < 3 {
		return "", "", fmt.Errorf("invalid URL format")
	}

	// Last two parts are owner/repo
	return parts[len(parts)-2], parts[len(parts)-1], nil
}

// ProviderFromEnv creates a provider based on a remote URL and environment.
//
// Environment variables checked:
//   - GITHUB_TOKEN for GitHub
//   - GITLAB_TOKEN for GitLab
//   - GIT_TOKEN as fallback for either
func ProviderFromEnv(remoteURL string) (Provider, error) {
	platform, err := DetectProvider(remoteURL)
	if err != nil {
		return nil, err
	}

	switch platform {
	case "github":
		token := os.Getenv("GITHUB_TOKEN")
		if token == "" {
			token = os.Getenv("GIT_TOKEN")
		}
		if token == "" {
			return nil, fmt.Errorf("GITHUB_TOKEN or GIT_TOKEN not set")
		}
		return NewGitHubProviderFromURL(token, remoteURL)

	case "gitlab":
		token := os.Getenv("GITLAB_TOKEN")
		if token == "" {
			token = os.Getenv("GIT_TOKEN")
		}
		if token == "" {
			return nil, fmt.Errorf("GITLAB_TOKEN or GIT_TOKEN not set")
		}
		return NewGitLabProviderFromURL(token, remoteURL)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, platform)
	}
}
