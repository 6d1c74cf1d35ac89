package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/vetrix/clinic-system/internal/core/domain"
)

func contextWithPrincipal(e *echo.Echo, role domain.Role) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ContextUserKey, &domain.User{ID: 1, Username: "someone", Role: role})
	return c, rec
}

func TestRBAC_Allows(t *testing.T) {
	e := echo.New()
	c, rec := contextWithPrincipal(e, domain.RoleVet)

	called := false
	handler := RBAC(domain.RoleAdmin, domain.RoleVet)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRBAC_Forbids(t *testing.T) {
	e := echo.New()
	c, rec := contextWithPrincipal(e, domain.RoleAssistant)

	handler := RBAC(domain.RoleAdmin)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRBAC_MissingPrincipalIsUnauthorized(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequireAdmin()(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireCapability(t *testing.T) {
	e := echo.New()

	cases := []struct {
		name string
		role domain.Role
		cap  domain.Capability
		want int
	}{
		{"assistant can create basic", domain.RoleAssistant, domain.CapCreateBasic, http.StatusOK},
		{"assistant cannot delete records", domain.RoleAssistant, domain.CapDeleteRecords, http.StatusForbidden},
		{"vet manages medical records", domain.RoleVet, domain.CapManageMedicalRecords, http.StatusOK},
		{"vet cannot manage users", domain.RoleVet, domain.CapManageUsers, http.StatusForbidden},
		{"admin deletes records", domain.RoleAdmin, domain.CapDeleteRecords, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := contextWithPrincipal(e, tc.role)
			handler := RequireCapability(tc.cap)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			if err := handler(c); err != nil {
				e.HTTPErrorHandler(err, c)
			}
			if rec.Code != tc.want {
				t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rec.Code)
			}
		})
	}
}

func TestRoleShortcuts(t *testing.T) {
	e := echo.New()

	allow := func(mw echo.MiddlewareFunc, role domain.Role) int {
		c, rec := contextWithPrincipal(e, role)
		handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		if err := handler(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		return rec.Code
	}

	if got := allow(RequireVetOrAdmin(), domain.RoleVet); got != http.StatusOK {
		t.Fatalf("vet through RequireVetOrAdmin: got %d", got)
	}
	if got := allow(RequireVetOrAdmin(), domain.RoleAssistant); got != http.StatusForbidden {
		t.Fatalf("assistant through RequireVetOrAdmin: got %d", got)
	}
	if got := allow(RequireAnyRole(), domain.RoleAssistant); got != http.StatusOK {
		t.Fatalf("assistant through RequireAnyRole: got %d", got)
	}
}
