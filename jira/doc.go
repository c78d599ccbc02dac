// Package jira reads issues from the Jira REST API for ticket import.
//
// The client works against Jira Cloud (API v3) and Jira Server/Data
// Center (API v2) and supports API token, personal access token, basic,
// and OAuth 2.0 authentication. All requests go through the shared
// retrying REST client from the http package.
//
//	cfg := &jira.Config{
//		URL: "https://your-domain.atlassian.net",
//		Auth: jira.AuthConfig{
//			Type:  jira.AuthAPIToken,
//			Email: "you@example.com",
//			Token: "your-api-token",
//		},
//	}
//
//	client, err := jira.NewClient(cfg)
//	if err != nil {
//		return err
//	}
//	issue, err := client.GetIssue(ctx, "PROJ-123")
//
// Cloud returns rich text fields in Atlassian Document Format; use
// ADFConverter to render them as Markdown. Use IsNotFound to detect
// missing issues regardless of where the 404 surfaced.
package jira
