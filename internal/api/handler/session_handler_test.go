package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/vetrix/clinic-system/internal/api/handler"
	"github.com/vetrix/clinic-system/internal/api/middleware"
	"github.com/vetrix/clinic-system/internal/core/domain"
	"github.com/vetrix/clinic-system/internal/core/ports"
)

type stubRegistry struct {
	sessions   map[int64][]*domain.LoginSession
	terminated []string
}

func (r *stubRegistry) CreateSession(context.Context, *domain.User, string, string) (*ports.SessionTokens, error) {
	return nil, nil
}

func (r *stubRegistry) ListActive(_ context.Context, userID int64) ([]*domain.LoginSession, error) {
	return r.sessions[userID], nil
}

func (r *stubRegistry) Terminate(_ context.Context, sessionID string) error {
	r.terminated = append(r.terminated, sessionID)
	return nil
}

func (r *stubRegistry) Touch(context.Context, string) error { return nil }
func (r *stubRegistry) SweepExpired(context.Context) error  { return nil }

func requestWithPrincipal(e *echo.Echo, method, path string, user *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextUserKey, user)
	return c, rec
}

func TestSessionHandler_List_MarksCurrent(t *testing.T) {
	e := newEcho()
	vet := &domain.User{ID: 3, Username: "dr.smith", Role: domain.RoleVet}
	registry := &stubRegistry{sessions: map[int64][]*domain.LoginSession{
		3: {
			{ID: "sess-a", UserID: 3, IPAddress: "10.0.0.1"},
			{ID: "sess-b", UserID: 3, IPAddress: "10.0.0.2"},
		},
	}}
	h := handler.NewSessionHandler(registry)

	c, rec := requestWithPrincipal(e, http.MethodGet, "/auth/sessions", vet)
	c.Request().Header.Set("X-Session-ID", "sess-b")

	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var views []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(views))
	}
	for _, v := range views {
		want := v["id"] == "sess-b"
		if v["is_current"] != want {
			t.Fatalf("is_current wrong for %v", v["id"])
		}
	}
}

func TestSessionHandler_Terminate_OwnSession(t *testing.T) {
	e := newEcho()
	vet := &domain.User{ID: 3, Username: "dr.smith", Role: domain.RoleVet}
	registry := &stubRegistry{sessions: map[int64][]*domain.LoginSession{
		3: {{ID: "sess-a", UserID: 3}},
	}}
	h := handler.NewSessionHandler(registry)

	c, rec := requestWithPrincipal(e, http.MethodDelete, "/auth/sessions/sess-a", vet)
	c.SetParamNames("id")
	c.SetParamValues("sess-a")

	if err := h.Terminate(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(registry.terminated) != 1 || registry.terminated[0] != "sess-a" {
		t.Fatalf("terminate not forwarded: %v", registry.terminated)
	}
}

func TestSessionHandler_Terminate_OtherUsersSessionForbidden(t *testing.T) {
	e := newEcho()
	vet := &domain.User{ID: 3, Username: "dr.smith", Role: domain.RoleVet}
	registry := &stubRegistry{sessions: map[int64][]*domain.LoginSession{
		3: {{ID: "sess-a", UserID: 3}},
	}}
	h := handler.NewSessionHandler(registry)

	c, rec := requestWithPrincipal(e, http.MethodDelete, "/auth/sessions/sess-x", vet)
	c.SetParamNames("id")
	c.SetParamValues("sess-x")

	if err := h.Terminate(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if len(registry.terminated) != 0 {
		t.Fatalf("terminate must not run on denial")
	}
}

func TestSessionHandler_Terminate_AdminMayTerminateAny(t *testing.T) {
	e := newEcho()
	admin := &domain.User{ID: 1, Username: "root", Role: domain.RoleAdmin}
	registry := &stubRegistry{sessions: map[int64][]*domain.LoginSession{}}
	h := handler.NewSessionHandler(registry)

	c, rec := requestWithPrincipal(e, http.MethodDelete, "/auth/sessions/sess-x", admin)
	c.SetParamNames("id")
	c.SetParamValues("sess-x")

	if err := h.Terminate(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(registry.terminated) != 1 {
		t.Fatalf("admin terminate not forwarded")
	}
}
