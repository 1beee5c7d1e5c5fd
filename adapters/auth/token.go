// Package auth issues and verifies signed admin tokens. Tokens carry no
// server-side state; rotating the secret revokes every token issued with
// the old one.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/artpar/convreg/ports"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// Issuer is the iss claim of every token.
	Issuer = "convreg"

	// ScopeSelectorsWrite allows saving and deleting selectors.
	ScopeSelectorsWrite = "selectors:write"

	// MinSecretLength is the shortest accepted signing secret.
	MinSecretLength = 32
)

var (
	// ErrNoSecret is returned when tokens are not configured.
	ErrNoSecret = errors.New("admin tokens are not configured")

	// ErrScope is returned for a valid token lacking the required scope.
	ErrScope = errors.New("token scope does not allow this operation")
)

// Claims are the claims of an admin token.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// TokenService signs and validates admin tokens with HS256.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	clock  ports.Clock
}

// NewTokenService returns a service signing with secret. Tokens expire
// after ttl.
func NewTokenService(secret string, ttl time.Duration, clock ports.Clock) (*TokenService, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d characters", MinSecretLength)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, clock: clock}, nil
}

// Issue returns a token for subject with the selectors:write scope.
func (s *TokenService) Issue(subject string) (string, time.Time, error) {
	now := s.clock.Now().UTC()
	expiresAt := now.Add(s.ttl)

	claims := Claims{
		Scope: ScopeSelectorsWrite,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate parses token and checks its signature, issuer, expiry and scope.
func (s *TokenService) Validate(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Scope != ScopeSelectorsWrite {
		return nil, ErrScope
	}
	return claims, nil
}
