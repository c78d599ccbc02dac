package auth

import (
	"fmt"
	"sync"
)

// Approvers verifies the identity behind plan approvals. Credentials are
// either JWT access tokens or issued API keys; Verify returns the subject
// to stamp on the approved plan.
type Approvers struct {
	jwtCfg JWTConfig
	keyCfg APIKeyConfig

	mu   sync.RWMutex
	keys map[string]string // key hash -> subject
}

// NewApprovers creates an approver verifier with the given JWT config.
func NewApprovers(cfg JWTConfig) *Approvers {
	return &Approvers{
		jwtCfg: cfg,
		keyCfg: APIKeyConfig{Prefix: "aura_"},
		keys:   make(map[string]string),
	}
}

// IssueToken issues a JWT access token for the subject.
func (a *Approvers) IssueToken(subject string) (string, error) {
	return GenerateAccessToken(a.jwtCfg, subject)
}

// IssueKey issues an API key bound to the subject. The secret is only
// available on the returned struct; the verifier stores its hash.
func (a *Approvers) IssueKey(subject string) (*APIKeyWithSecret, error) {
	key, err := GenerateAPIKey(a.keyCfg)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.keys[key.Hash] = subject
	a.mu.Unlock()
	return key, nil
}

// RevokeKey removes an issued API key by its hash.
func (a *Approvers) RevokeKey(hash string) {
	a.mu.Lock()
	delete(a.keys, hash)
	a.mu.Unlock()
}

// Verify checks the credential and returns the verified subject.
func (a *Approvers) Verify(credential string) (string, error) {
	if ValidateAPIKeyFormat(credential, a.keyCfg) {
		a.mu.RLock()
		subject, ok := a.keys[HashToken(credential)]
		a.mu.RUnlock()
		if !ok {
			return "", ErrInvalidAPIKey
		}
		return subject, nil
	}

	claims, err := ValidateAccessToken(a.jwtCfg, credential)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
