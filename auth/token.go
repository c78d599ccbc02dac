package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	nanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultTokenTTL is the default lifetime of approval tokens.
const DefaultTokenTTL = 15 * time.Minute

// JWTConfig holds signing parameters for approval tokens.
type JWTConfig struct {
	// Secret is the HMAC signing key (at least 32 bytes).
	Secret []byte

	// Issuer is stamped on issued tokens and checked during validation
	// when set.
	Issuer string

	// TokenTTL is the token lifetime. Zero means DefaultTokenTTL.
	TokenTTL time.Duration
}

func (c JWTConfig) ttl() time.Duration {
	if c.TokenTTL == 0 {
		return DefaultTokenTTL
	}
	return c.TokenTTL
}

// Claims is the validated content of an approval token.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateAccessToken creates a signed token identifying the subject.
func GenerateAccessToken(cfg JWTConfig, subject string) (string, error) {
	if len(cfg.Secret) < 32 {
		return "", ErrSecretTooShort
	}

	tokenID, err := nanoid.New()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.ttl())),
			ID:        tokenID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Secret)
}

// ValidateAccessToken parses and validates a token, returning its claims.
func ValidateAccessToken(cfg JWTConfig, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return cfg.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
