// Package git runs git operations for ticket working branches.
//
// Context wraps a repository and shells out through a CommandRunner, so
// tests can script command responses with MockRunner. Workspace builds on
// Context with the runner's branch conventions: EnsureBranch derives a
// feature branch name from a ticket, CommitStep records a conventional
// commit carrying the ticket reference, and Commits lists the work done on
// a branch since it diverged from the base.
package git
