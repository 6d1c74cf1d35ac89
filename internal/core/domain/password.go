package domain

import (
	"fmt"
	"strings"
	"unicode"
)

const minPasswordLength = 12

const specialCharacters = `!@#$%^&*(),.?":{}|<>`

// commonPatterns are substrings that disqualify a password outright,
// matched case-insensitively.
var commonPatterns = []string{"123", "abc", "qwe", "password", "admin"}

// PasswordValidation is the outcome of checking a password against the
// clinic password policy.
type PasswordValidation struct {
	Valid  bool     `json:"is_valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidatePassword checks every policy rule and collects all violations.
// It is pure and deterministic: the same input always yields the same errors.
func ValidatePassword(password string) PasswordValidation {
	var errs []string

	if len(password) < minPasswordLength {
		errs = append(errs, fmt.Sprintf("password must be at least %d characters long", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialCharacters, r):
			hasSpecial = true
		}
	}
	if !hasUpper {
		errs = append(errs, "password must contain at least one uppercase letter")
	}
	if !hasLower {
		errs = append(errs, "password must contain at least one lowercase letter")
	}
	if !hasDigit {
		errs = append(errs, "password must contain at least one number")
	}
	if !hasSpecial {
		errs = append(errs, "password must contain at least one special character")
	}

	if hasRepeatedRun(password, 3) {
		errs = append(errs, "password cannot contain repeated characters")
	}

	lowered := strings.ToLower(password)
	for _, pattern := range commonPatterns {
		if strings.Contains(lowered, pattern) {
			errs = append(errs, "password cannot contain common patterns")
			break
		}
	}

	return PasswordValidation{Valid: len(errs) == 0, Errors: errs}
}

// hasRepeatedRun reports whether the password contains a run of n or more
// identical consecutive characters.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	count := 0
	for _, r := range s {
		if r == prev {
			count++
			if count >= n {
				return true
			}
		} else {
			prev = r
			count = 1
		}
	}
	return false
}
