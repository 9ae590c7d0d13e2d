package credentials

// Package credentials implements password hashing on bcrypt.

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// ErrPasswordTooShort is returned by Hash for passwords under MinPasswordLength.
var ErrPasswordTooShort = errors.New("password too short")

// BcryptHasher hashes and verifies passwords with bcrypt. bcrypt's comparison
// is constant-time, so mismatches do not leak timing information.
type BcryptHasher struct {
	// Cost overrides bcrypt.DefaultCost when positive.
	Cost int
}

func (h BcryptHasher) cost() int {
	if h.Cost > 0 {
		return h.Cost
	}
	return bcrypt.DefaultCost
}

// Hash hashes a plaintext password.
func (h BcryptHasher) Hash(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost())
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Compare returns nil when the password matches the stored hash.
func (h BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
