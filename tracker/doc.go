// Package tracker imports issues from external trackers as draft tickets.
//
// A Provider fetches one issue by reference and converts it into a
// ticket.Ticket ready for the lifecycle controller. Providers exist for
// GitHub issues, GitLab issues, and Jira.
//
// Example:
//
//	provider, err := tracker.NewGitHubProvider(token, "morten-olsen", "aura")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	t, err := provider.FetchTicket(ctx, "#123")
package tracker
