// Package auth provides JWT session tokens, password hashing, and the HTTP
// middleware that turns a Bearer token into a proven username.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. POST /api/auth/register → account created (bcrypt-hashed password)
// 2. POST /api/auth/login → credentials verified, server issues a JWT
// 3. The client sends "Authorization: Bearer <jwt>" on every API call
// 4. RequireAuth validates the JWT and puts the username in the request
//    context — handlers never trust a client-supplied identity field
//
// The token is stateless: everything needed to verify it (subject, expiry)
// is inside the signed payload. There is no revocation list, so a leaked
// token stays valid until it expires naturally — a documented trade-off of
// this design, not an oversight.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// issuer is pinned into every token and checked on validation, so tokens
// minted by other applications sharing a secret by accident are rejected.
const issuer = "snippet-vault"

// TokenService issues and validates the signed session tokens.
//
// It holds the HMAC secret and the configured token lifetime. The same
// secret signs and verifies — symmetric HS256, fine for a single-process
// deployment.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and token
// lifetime. The secret should be at least 32 bytes of random data in
// production; anything under 16 characters is rejected outright.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token TTL must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the JWT payload. jwt.RegisteredClaims already carries the
// standard fields (Subject, IssuedAt, ExpiresAt, Issuer) — the subject
// stores the username, nothing custom is added.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given username.
//
// The token encodes {sub: username, iat: now, exp: now + ttl, iss} and is
// opaque to the caller — a compact self-contained string, not a server-side
// session ID.
func (s *TokenService) Generate(username string) (string, error) {
	return s.GenerateWithDuration(username, s.ttl)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used by tests to mint already-expired or long-lived tokens.
func (s *TokenService) GenerateWithDuration(username string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
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

// Validate parses and verifies a token string and returns the username it
// was issued to.
//
// Validation fails closed: a bad signature, malformed structure, wrong
// algorithm, wrong issuer, missing expiry, or expiry in the past all yield
// an error and no subject. Callers that only need a yes/no (the middleware)
// treat every failure identically so the response never leaks WHICH check
// failed.
//
// jwt.WithValidMethods pins the algorithm to HS256 — without it an attacker
// could attempt an algorithm-confusion token ("alg":"none").
func (s *TokenService) Validate(tokenStr string) (string, error) {
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

	username := c.Subject
	if username == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return username, nil
}
