package util

import (
	"errors"
	"net/mail"
	"strings"
)

// ValidateEmail returns an error for malformed addresses.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("email is invalid")
	}
	return nil
}

// ValidatePassword checks the minimum password rules.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// RequireString rejects blank values.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(field + " is required")
	}
	return nil
}

// FieldErrors maps form fields to messages shown next to them.
type FieldErrors map[string]string

// Add records msg for field unless one is already present.
func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// Check records err under field when non-nil.
func (f FieldErrors) Check(field string, err error) {
	if err != nil {
		f.Add(field, err.Error())
	}
}

// Err returns f as an error, or nil when empty.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

func (f FieldErrors) Error() string {
	if msg, ok := f["_form"]; ok {
		return msg
	}
	parts := make([]string, 0, len(f))
	for field, msg := range f {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}
