// Package secrets mints and verifies the operator credentials that guard the
// admin surface. Only bcrypt hashes are ever configured or stored.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	dErrors "termyx/pkg/domain-errors"
)

const tokenBytes = 32

// Generate creates a random admin token, URL-safe base64 without padding.
func Generate() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate token")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash creates a bcrypt hash of the token for ADMIN_TOKEN_HASH.
func Hash(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", dErrors.New(dErrors.CodeValidation, "token cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeValidation, "token is too long")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not hash token")
	}
	return string(hashed), nil
}

// Verify checks a presented token against a bcrypt hash.
func Verify(token, hash string) error {
	if token == "" || hash == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid token")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not verify token")
	}
	return nil
}

// ValidHash reports whether s looks like a bcrypt hash, for config checks.
func ValidHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}
