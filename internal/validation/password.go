package validation

import (
	"errors"
)

// ValidatePassword enforces the length rules for new passwords.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("Das Passwort muss mindestens 8 Zeichen lang sein")
	}

	// bcrypt silently truncates passwords longer than 72 bytes
	if len(password) > 72 {
		return errors.New("Das Passwort darf höchstens 72 Zeichen lang sein")
	}

	return nil
}
