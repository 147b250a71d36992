// Package auth provides session tokens and password hashing for the API.
//
// Sessions are stateless, HMAC-signed JWTs: the server holds no session
// table. Everything needed to authenticate a request — the user id and the
// expiry — travels inside the signed token, and verification is a pure
// in-memory signature check with no DB or disk I/O on the hot path.
//
// The flip side: there is no logout on the server. A token stays valid
// until its expiry elapses; the client "logs out" by discarding it.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "adboard"

// DefaultTokenTTL is how long an issued session stays valid.
// A classifieds site favors convenience over bank-grade paranoia here.
const DefaultTokenTTL = 24 * time.Hour

// TokenService issues and verifies session tokens.
//
// It holds the HMAC secret used to sign and verify. The secret is loaded
// once at startup (cmd/server) and injected here; nothing else in the
// process ever sees it. Rotate by restarting with a new secret — all
// outstanding sessions die with the old one, which is the intended effect.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and token
// lifetime. The secret should be at least 32 bytes of random data in
// production (e.g. JWT_SECRET=$(openssl rand -hex 32)); anything under 16
// characters is refused outright.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the JWT payload. The "sub" (Subject) registered claim carries
// the internal user id.
type claims struct {
	jwt.RegisteredClaims
}

// Issue creates and signs a session token for the given userID.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, same key signs and
// verifies. Fine for a single-service deployment; switch to RS256 only when
// other services need to verify without holding the secret.
func (s *TokenService) Issue(userID string) (string, error) {
	return s.IssueWithDuration(userID, s.ttl)
}

// IssueWithDuration creates a token with a custom expiry. Used by tests to
// mint already-expired tokens.
func (s *TokenService) IssueWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and verifies a token string and returns the userID it binds.
//
// Checks performed: signature (tamper detection), expiry, issuer, and that
// the algorithm really is HS256 — jwt.WithValidMethods closes the classic
// "alg":"none" confusion attack.
//
// Callers must NOT leak which of these failed to the client; expired and
// forged tokens both become the same 401 upstream.
func (s *TokenService) Verify(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
