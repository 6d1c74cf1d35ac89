package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vetrix/clinic-system/internal/api/metrics"
	"github.com/vetrix/clinic-system/internal/core/domain"
)

// RBAC allows the request through only when the verified principal's role is
// in the allowed set. Must run after Auth.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return requirePrincipal(func(user *domain.User) bool {
		_, ok := allowed[user.Role]
		return ok
	})
}

// RequireCapability allows the request through only when the principal's
// role resolves to the named capability.
func RequireCapability(cap domain.Capability) echo.MiddlewareFunc {
	return requirePrincipal(func(user *domain.User) bool {
		return user.Role.Can(cap)
	})
}

// Role shortcuts. All of them reduce to the same authenticate → authorize
// chain; only the predicate differs.
func RequireAdmin() echo.MiddlewareFunc      { return RBAC(domain.RoleAdmin) }
func RequireVetOrAdmin() echo.MiddlewareFunc { return RBAC(domain.RoleAdmin, domain.RoleVet) }
func RequireAnyRole() echo.MiddlewareFunc {
	return RBAC(domain.RoleAdmin, domain.RoleVet, domain.RoleAssistant)
}

func requirePrincipal(predicate func(*domain.User) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := PrincipalFrom(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}
			if !predicate(user) {
				metrics.AuthorizationDenialsTotal.Inc()
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}
