// Package password hashes account passwords with bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxBytes is the longest input bcrypt accepts.
const MaxBytes = 72

const cost = 12

// ErrTooLong is returned for passwords bcrypt would refuse.
var ErrTooLong = errors.New("password longer than 72 bytes")

// Hash returns the bcrypt hash of pw.
func Hash(pw string) (string, error) {
	if len(pw) > MaxBytes {
		return "", ErrTooLong
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Verify reports whether pw matches hash. A malformed hash never matches.
func Verify(pw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
