package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidRole        = errors.New("invalid user role")
	ErrSessionNotFound    = errors.New("session not found")
	ErrRefreshInvalid     = errors.New("refresh token invalid or expired")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

// ValidationErrors collects every rule violation found in one pass so the
// client sees the full list, not just the first failure.
func ValidationErrors(msgs []string) error {
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

// RateLimitError carries the retry hint alongside the sentinel so the HTTP
// layer can surface a Retry-After header.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many login attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrTooManyAttempts
}
