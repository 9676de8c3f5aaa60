package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ValidateUsername checks the display name used for login greetings and
// the user table.
func ValidateUsername(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("Benutzername ist erforderlich")
	}

	if len([]rune(trimmed)) > 50 {
		return errors.New("Benutzername ist zu lang (maximal 50 Zeichen)")
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return errors.New("Benutzername enthält ungültige Zeichen")
		}
	}

	return nil
}
