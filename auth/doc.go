// Package auth verifies the identity behind plan approvals.
//
// Approvers is the entry point: it issues JWT access tokens and API keys
// for reviewers, and Verify resolves a presented credential back to its
// subject so the approval can be stamped with who gave it.
//
//	approvers := auth.NewApprovers(auth.JWTConfig{
//	    Secret: []byte("your-32-byte-or-longer-secret-key"),
//	    Issuer: "aura",
//	})
//
//	token, err := approvers.IssueToken("alice")
//	subject, err := approvers.Verify(token) // "alice"
//
// API keys are longer-lived credentials for automation. Only the hash of
// an issued key is retained; the secret is returned once at creation.
package auth
