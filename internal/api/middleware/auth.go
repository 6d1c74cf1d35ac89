package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vetrix/clinic-system/internal/api/metrics"
	"github.com/vetrix/clinic-system/internal/core/domain"
	"github.com/vetrix/clinic-system/internal/core/ports"
)

// Context keys set by Auth for downstream middleware and handlers.
const (
	ContextUserKey  = "auth_user"
	ContextTokenKey = "auth_token"
)

// Auth extracts the bearer token, verifies it through the token service
// (signature, expiry, type, role, blacklist), and attaches the principal to
// the request context. Every failure is a 401; the chain never reaches the
// handler without a verified principal.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authorization token required")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			token := parts[1]
			user := verifier.VerifyAccessToken(c.Request().Context(), token)
			if user == nil {
				metrics.TokenVerificationsTotal.WithLabelValues("rejected").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			metrics.TokenVerificationsTotal.WithLabelValues("ok").Inc()

			c.Set(ContextUserKey, user)
			c.Set(ContextTokenKey, token)

			return next(c)
		}
	}
}

// PrincipalFrom returns the verified principal attached by Auth, or nil when
// the middleware did not run.
func PrincipalFrom(c echo.Context) *domain.User {
	user, _ := c.Get(ContextUserKey).(*domain.User)
	return user
}

// Activity updates the session's last-activity timestamp when the client
// identifies its session via the X-Session-ID header, keeping live sessions
// out of the idle sweep. Touch failures never fail the request.
func Activity(registry ports.SessionRegistry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if sid := c.Request().Header.Get("X-Session-ID"); sid != "" {
				_ = registry.Touch(c.Request().Context(), sid)
			}
			return next(c)
		}
	}
}
