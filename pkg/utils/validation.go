package utils

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	MinDisplayNameLength = 2
	MaxDisplayNameLength = 50
	MinPasswordLength    = 8
	MaxPasswordLength    = 128
)

// ValidationError describes one invalid input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects field errors so a request can report all of them at once.
type ValidationErrors []ValidationError

func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

func (v ValidationErrors) Empty() bool { return len(v) == 0 }

// ValidateDisplayName: 2-50 characters after trimming.
func ValidateDisplayName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < MinDisplayNameLength {
		return &ValidationError{Field: "display_name", Message: "must be at least 2 characters"}
	}
	if n > MaxDisplayNameLength {
		return &ValidationError{Field: "display_name", Message: "must be at most 50 characters"}
	}
	return nil
}

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Field: "email", Message: "is required"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &ValidationError{Field: "email", Message: "is not a valid email address"}
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return &ValidationError{Field: "password", Message: "must be at least 8 characters"}
	}
	if len(password) > MaxPasswordLength {
		return &ValidationError{Field: "password", Message: "must be at most 128 characters"}
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CleanList trims entries, drops empties and duplicates, and caps the list length.
func CleanList(items []string, max int) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
