// Package auth — password hashing utilities.
//
// bcrypt is a password hashing function specifically designed to be slow,
// and that slowness is the point: it makes offline brute-force expensive.
// It also salts every hash automatically, so two users with the same
// password get different hashes, and the salt travels inside the output
// string — no separate salt column.
//
// Hash format (the full output of bcrypt.GenerateFromPassword):
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (12 rounds → 2^12 = 4096 iterations)
//	 version
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/adboard/internal/apperror"
)

// DefaultCost is the bcrypt work factor used in production.
//
// Cost 12 takes roughly ~250ms on a modern server — negligible for a login,
// brutal for an attacker. Tune so hashing stays in the 200–300ms range on
// your production hardware.
const DefaultCost = 12

// maxPasswordBytes is bcrypt's input ceiling. GenerateFromPassword would
// silently truncate anything longer, which means "correct horse battery
// staple plus 40 more bytes" and its truncation would verify as the same
// password. We reject instead of truncating.
const maxPasswordBytes = 72

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so the cost can be injected: tests use
// bcrypt.MinCost to avoid paying ~250ms per hash, production uses
// DefaultCost.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the given cost.
// Pass DefaultCost outside of tests.
func NewPasswordService(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// The output is a self-contained string safe to store directly; it embeds
// the salt and cost, so Verify needs nothing else.
//
// Plaintexts over 72 bytes are rejected as a validation error rather than
// silently truncated.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", maxPasswordBytes))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil if they match.
//
// bcrypt.CompareHashAndPassword is constant-time internally, and callers
// must keep it that way upstream: a mismatch and a malformed hash both
// come back as a plain error here, and the service layer collapses every
// verification failure into the same generic authentication error.
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
