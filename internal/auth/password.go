// Package auth holds the credential and token plumbing that sits beside the
// services: bcrypt password hashing, bearer-token extraction for HTTP and the
// optional Redis cache in front of token lookups.
//
// Hash format (the full output of bcrypt.GenerateFromPassword):
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost
//	 version
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 12

// maxPasswordBytes is the bcrypt input limit. Longer inputs are rejected, not
// truncated.
const maxPasswordBytes = 72

// ErrPasswordMismatch is returned by Verify when the password is wrong.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// PasswordService hashes and verifies passwords with bcrypt.
type PasswordService struct {
	cost int
}

// NewPasswordService returns a service using cost. Values outside bcrypt's
// accepted range fall back to DefaultCost.
func NewPasswordService(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &PasswordService{cost: cost}
}

// NewPasswordServiceForTest uses the minimum bcrypt cost. Tests in other
// packages use it to keep hashing in the millisecond range.
func NewPasswordServiceForTest() *PasswordService {
	return &PasswordService{cost: bcrypt.MinCost}
}

// Cost reports the configured work factor.
func (p *PasswordService) Cost() int { return p.cost }

// Hash returns a self-contained bcrypt string (salt and cost included) that
// can be stored as-is.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plaintext matches hash, ErrPasswordMismatch when it
// does not, and a wrapped error when hash is not a bcrypt hash at all.
//
// bcrypt.CompareHashAndPassword compares in constant time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return fmt.Errorf("auth: comparing password hash: %w", err)
}
