package user

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"go-yamdb/internal/apperr"
)

const (
	UsernameMaxLength = 150
	EmailMaxLength    = 254
	NameMaxLength     = 150

	// ReservedUsername collides with the /users/me route.
	ReservedUsername = "me"
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// ValidateUsername enforces length, character set and the reserved value.
func ValidateUsername(s string) error {
	switch {
	case s == "":
		return apperr.Field("username", "username is required")
	case utf8.RuneCountInString(s) > UsernameMaxLength:
		return apperr.Field("username", "username must be at most 150 characters")
	case s == ReservedUsername:
		return apperr.Field("username", "username \"me\" is reserved")
	case !usernamePattern.MatchString(s):
		return apperr.Field("username", "username may contain only letters, digits and @/./+/-/_")
	}
	return nil
}

// NormalizeEmail validates an address and returns its lower-cased bare form.
func NormalizeEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Field("email", "email is required")
	}
	if len(s) > EmailMaxLength {
		return "", apperr.Field("email", "email must be at most 254 characters")
	}
	parsed, err := mail.ParseAddress(s)
	if err != nil || parsed.Address != s {
		return "", apperr.Field("email", "enter a valid email address")
	}
	return strings.ToLower(parsed.Address), nil
}

// ValidateName checks an optional first/last name field.
func ValidateName(field, s string) error {
	if utf8.RuneCountInString(s) > NameMaxLength {
		return apperr.Field(field, field+" must be at most 150 characters")
	}
	return nil
}
