package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vetrix/clinic-system/internal/api/metrics"
	"github.com/vetrix/clinic-system/internal/api/middleware"
	"github.com/vetrix/clinic-system/internal/core/domain"
	"github.com/vetrix/clinic-system/internal/core/ports"
)

type SessionHandler struct {
	registry ports.SessionRegistry
}

func NewSessionHandler(registry ports.SessionRegistry) *SessionHandler {
	return &SessionHandler{registry: registry}
}

// sessionView decorates a login session with the is_current flag derived
// from the client-supplied X-Session-ID header.
type sessionView struct {
	*domain.LoginSession
	IsCurrent bool `json:"is_current"`
}

// List returns the caller's active sessions.
//
// @Summary      List active sessions
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        X-Session-ID  header    string  false  "Current session id, used to mark is_current"
// @Success      200  {array}   sessionView
// @Failure      401  {object}  map[string]string
// @Router       /auth/sessions [get]
func (h *SessionHandler) List(c echo.Context) error {
	principal := middleware.PrincipalFrom(c)
	if principal == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	sessions, err := h.registry.ListActive(c.Request().Context(), principal.ID)
	if err != nil {
		return err
	}

	current := c.Request().Header.Get("X-Session-ID")
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, sessionView{LoginSession: s, IsCurrent: current != "" && s.ID == current})
	}
	return c.JSON(http.StatusOK, views)
}

// Terminate ends one of the caller's sessions. A principal may only
// terminate its own sessions; admins may terminate anyone's.
//
// @Summary      Terminate a session
// @Tags         sessions
// @Security     BearerAuth
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /auth/sessions/{id} [delete]
func (h *SessionHandler) Terminate(c echo.Context) error {
	principal := middleware.PrincipalFrom(c)
	if principal == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	sessionID := c.Param("id")

	if principal.Role != domain.RoleAdmin {
		owned, err := h.registry.ListActive(c.Request().Context(), principal.ID)
		if err != nil {
			return err
		}
		mine := false
		for _, s := range owned {
			if s.ID == sessionID {
				mine = true
				break
			}
		}
		if !mine {
			return echo.NewHTTPError(http.StatusForbidden, "cannot terminate another user's session")
		}
	}

	if err := h.registry.Terminate(c.Request().Context(), sessionID); err != nil {
		return err
	}
	metrics.SessionsTerminatedTotal.Inc()
	return c.JSON(http.StatusOK, map[string]string{"message": "session terminated"})
}
