package utils

import (
	"regexp"
	"strings"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
	MinPasswordLength = 8
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_]*$`)

// ValidationError is a user-facing input error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateUsername: 3-20 characters, letters, numbers and underscores,
// not starting with an underscore.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	switch {
	case len(username) < MinUsernameLength:
		return &ValidationError{Field: "username", Message: "Username must be at least 3 characters"}
	case len(username) > MaxUsernameLength:
		return &ValidationError{Field: "username", Message: "Username must be at most 20 characters"}
	case !usernameRegex.MatchString(username):
		return &ValidationError{Field: "username", Message: "Username can only contain letters, numbers, and underscores, and must start with a letter or number"}
	}
	return nil
}

// ValidatePassword only enforces a minimum length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return &ValidationError{Field: "password", Message: "Password must be at least 8 characters"}
	}
	return nil
}

// NormalizeUsername lowercases for storage and lookup.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
