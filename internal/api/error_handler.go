package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/vetrix/clinic-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Code is
// a machine-readable discriminator; retry_after is only present on 429s.
type errorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps the domain error taxonomy to deterministic HTTP statuses and codes.
//   - Logs every error server-side before responding.
//   - Never leaks hashes, secrets, or stack traces to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp, status := resolveError(err, log, c)

		if resp.RetryAfter > 0 {
			c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", resp.RetryAfter))
		}
		_ = c.JSON(status, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (errorResponse, int) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code := "VALIDATION_ERROR"
		switch he.Code {
		case http.StatusUnauthorized:
			code = "AUTHENTICATION_ERROR"
		case http.StatusForbidden:
			code = "AUTHORIZATION_ERROR"
		case http.StatusNotFound:
			code = "NOT_FOUND_ERROR"
		case http.StatusInternalServerError:
			code = "INTERNAL_ERROR"
		}
		return errorResponse{Error: fmt.Sprintf("%v", he.Message), Code: code}, he.Code
	}

	var rl *domain.RateLimitError
	if errors.As(err, &rl) {
		log.Warn().
			Str("ip", c.RealIP()).
			Dur("retry_after", rl.RetryAfter).
			Msg("login rate limit exceeded")
		return errorResponse{
			Error:      "too many login attempts",
			Code:       "RATE_LIMITED",
			RetryAfter: int(rl.RetryAfter.Seconds()) + 1,
		}, http.StatusTooManyRequests
	}

	// Known domain errors → deterministic statuses and codes.
	switch {
	case errors.Is(err, domain.ErrValidation):
		return errorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"}, http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		return errorResponse{Error: "invalid credentials", Code: "AUTHENTICATION_ERROR"}, http.StatusUnauthorized
	case errors.Is(err, domain.ErrRefreshInvalid):
		return errorResponse{Error: "refresh token invalid or expired", Code: "AUTHENTICATION_ERROR"}, http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return errorResponse{Error: "insufficient permissions", Code: "AUTHORIZATION_ERROR"}, http.StatusForbidden
	case errors.Is(err, domain.ErrUserNotFound):
		return errorResponse{Error: "user not found", Code: "NOT_FOUND_ERROR"}, http.StatusNotFound
	case errors.Is(err, domain.ErrSessionNotFound):
		return errorResponse{Error: "session not found", Code: "NOT_FOUND_ERROR"}, http.StatusNotFound
	case errors.Is(err, domain.ErrUserExists):
		return errorResponse{Error: "user already exists", Code: "CONFLICT_ERROR"}, http.StatusConflict
	case errors.Is(err, domain.ErrInvalidRole):
		return errorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"}, http.StatusBadRequest
	case errors.Is(err, domain.ErrTooManyAttempts):
		return errorResponse{Error: "too many login attempts", Code: "RATE_LIMITED"}, http.StatusTooManyRequests
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return errorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}, http.StatusInternalServerError
}
