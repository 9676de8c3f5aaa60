// Package credential verifies stored passwords. Every stored value is tagged
// with exactly one scheme and verified by that scheme only.
package credential

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmpty    = errors.New("no stored credential")
	ErrMismatch = errors.New("password mismatch")
)

type Scheme string

const (
	SchemeBcrypt Scheme = "bcrypt"
	// SchemeBcryptStripped covers rows where a bcrypt prefix was prepended to
	// the plaintext password instead of a real hash.
	SchemeBcryptStripped Scheme = "bcrypt-stripped"
	SchemePlaintext      Scheme = "plaintext"
)

var bcryptPrefix = regexp.MustCompile(`^\$2[aby]\$[0-9]+\$`)

// Credential is a stored secret with its scheme.
type Credential struct {
	Scheme Scheme
	value  string
}

// Parse tags a stored value.
func Parse(stored string) (Credential, error) {
	if stored == "" {
		return Credential{}, ErrEmpty
	}
	if strings.HasPrefix(stored, "$2") {
		if _, err := bcrypt.Cost([]byte(stored)); err == nil {
			return Credential{Scheme: SchemeBcrypt, value: stored}, nil
		}
		if loc := bcryptPrefix.FindStringIndex(stored); loc != nil {
			return Credential{Scheme: SchemeBcryptStripped, value: stored[loc[1]:]}, nil
		}
	}
	return Credential{Scheme: SchemePlaintext, value: stored}, nil
}

// Verify returns nil on match, ErrMismatch on a wrong password and any other
// error when the stored value could not be checked.
func (c Credential) Verify(password string) error {
	switch c.Scheme {
	case SchemeBcrypt:
		err := bcrypt.CompareHashAndPassword([]byte(c.value), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		if err != nil {
			return fmt.Errorf("bcrypt verification failed: %w", err)
		}
		return nil
	case SchemeBcryptStripped, SchemePlaintext:
		if subtle.ConstantTimeCompare([]byte(c.value), []byte(password)) == 1 {
			return nil
		}
		return ErrMismatch
	}
	return fmt.Errorf("unknown credential scheme %q", c.Scheme)
}

// Hash creates a new bcrypt credential value.
func Hash(password string) (string, error) {
	if len(password) > 72 {
		return "", errors.New("password exceeds bcrypt limit")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
