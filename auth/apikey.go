package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
)

const keyAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Default API key configuration.
const (
	DefaultAPIKeyPrefix = "key_"
	DefaultAPIKeyLength = 32
)

// APIKeyConfig holds configuration for API key generation.
type APIKeyConfig struct {
	// Prefix is prepended to all keys. Defaults to "key_".
	Prefix string

	// RandomLength is the length of the random part. Defaults to 32.
	RandomLength int
}

func (c APIKeyConfig) prefix() string {
	if c.Prefix == "" {
		return DefaultAPIKeyPrefix
	}
	return c.Prefix
}

func (c APIKeyConfig) randomLength() int {
	if c.RandomLength == 0 {
		return DefaultAPIKeyLength
	}
	return c.RandomLength
}

// APIKeyWithSecret is a freshly issued API key. The Secret is only
// available here; callers persist the Hash.
type APIKeyWithSecret struct {
	ID     string
	Secret string
	Hash   string
}

// GenerateAPIKey creates a new API key with the given configuration.
func GenerateAPIKey(cfg APIKeyConfig) (*APIKeyWithSecret, error) {
	random, err := nanoid.Generate(keyAlphabet, cfg.randomLength())
	if err != nil {
		return nil, fmt.Errorf("generate api key: %w", err)
	}
	id, err := nanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate api key id: %w", err)
	}

	secret := cfg.prefix() + random
	return &APIKeyWithSecret{
		ID:     "key_" + id,
		Secret: secret,
		Hash:   HashToken(secret),
	}, nil
}

// ValidateAPIKeyFormat reports whether key matches the expected shape for
// the configuration, without checking whether it was ever issued.
func ValidateAPIKeyFormat(key string, cfg APIKeyConfig) bool {
	prefix := cfg.prefix()
	return strings.HasPrefix(key, prefix) && len(key) == len(prefix)+cfg.randomLength()
}

// HashToken returns the SHA-256 hash of a credential for storage. Issued
// keys are kept only as hashes so a leaked store does not leak secrets.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
