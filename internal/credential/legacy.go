package credential

import (
	"crypto/subtle"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LegacyAllowList accepts passwords that predate stored credentials. It is
// only loaded when a file is configured.
//
//	users:
//	  someone@example.com: their-password
//	passwords:
//	  - shared-password
type LegacyAllowList struct {
	Users     map[string]string `yaml:"users"`
	Passwords []string          `yaml:"passwords"`
}

// LoadLegacyAllowList reads the YAML file at path. An empty path disables the shim.
func LoadLegacyAllowList(path string) (*LegacyAllowList, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy credentials: %w", err)
	}
	var l LegacyAllowList
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse legacy credentials: %w", err)
	}
	users := make(map[string]string, len(l.Users))
	for email, pw := range l.Users {
		users[strings.ToLower(strings.TrimSpace(email))] = pw
	}
	l.Users = users
	return &l, nil
}

// Allows reports whether password is accepted for email. Safe on a nil list.
func (l *LegacyAllowList) Allows(email, password string) bool {
	if l == nil || password == "" {
		return false
	}
	if pw, ok := l.Users[strings.ToLower(strings.TrimSpace(email))]; ok && equal(pw, password) {
		return true
	}
	for _, pw := range l.Passwords {
		if equal(pw, password) {
			return true
		}
	}
	return false
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
