package validation

import (
	"errors"
	"net/mail"
)

// ValidateEmail validates email format and length
// Uses Go's built-in net/mail parser which follows RFC 5322
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("E-Mail-Adresse ist erforderlich")
	}

	// RFC 5321: total max 254 with @
	if len(email) > 254 {
		return errors.New("E-Mail-Adresse ist zu lang (maximal 254 Zeichen)")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("Ungültige E-Mail-Adresse")
	}

	return nil
}
