// Package auth — password hashing for the credential store.
//
// Passwords are never stored or compared in raw form. bcrypt generates a
// random salt per hash and embeds it in the output, so the stored string is
// self-contained:
//
//	$2a$12$<22-char salt><31-char hash>
//
// Verification is a constant-time hash comparison; login cannot be timed to
// recover partial matches.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
// Cost 12 takes roughly a quarter second on current server hardware —
// negligible for a login, expensive for a brute-force attacker.
const DefaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so the cost can be injected: the
// server wires the configured cost, tests use bcrypt's minimum (4) to stay
// fast.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the given bcrypt cost.
// Pass 0 (or anything below bcrypt's minimum) to get DefaultCost.
func NewPasswordService(cost int) *PasswordService {
	if cost < bcrypt.MinCost {
		cost = DefaultCost
	}
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// bcrypt silently truncates input beyond 72 bytes, so longer passwords are
// rejected explicitly rather than accepted with a weaker-than-expected
// hash.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil on match, a non-nil error otherwise. Callers in the login
// path must collapse that error into a generic "invalid credentials" —
// never forward it to the client.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
