package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vetrix/clinic-system/internal/api/metrics"
	"github.com/vetrix/clinic-system/internal/api/middleware"
	"github.com/vetrix/clinic-system/internal/core/ports"
)

type TwoFactorHandler struct {
	twoFactor ports.TwoFactorService
}

func NewTwoFactorHandler(twoFactor ports.TwoFactorService) *TwoFactorHandler {
	return &TwoFactorHandler{twoFactor: twoFactor}
}

type twoFactorCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

// Setup generates a fresh TOTP secret and backup codes for the caller.
//
// @Summary      Begin two-factor setup
// @Tags         two-factor
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.TwoFactorSetup
// @Failure      401  {object}  map[string]string
// @Router       /auth/2fa/setup [post]
func (h *TwoFactorHandler) Setup(c echo.Context) error {
	principal := middleware.PrincipalFrom(c)
	if principal == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	setup, err := h.twoFactor.BeginSetup(c.Request().Context(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, setup)
}

// Verify checks a one-time or backup code for the caller.
//
// @Summary      Verify a two-factor code
// @Tags         two-factor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      twoFactorCodeRequest  true  "One-time or backup code"
// @Success      200   {object}  map[string]bool
// @Failure      401   {object}  map[string]string
// @Router       /auth/2fa/verify [post]
func (h *TwoFactorHandler) Verify(c echo.Context) error {
	principal := middleware.PrincipalFrom(c)
	if principal == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	var req twoFactorCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ok, err := h.twoFactor.Verify(c.Request().Context(), principal.ID, req.Code)
	if err != nil {
		return err
	}
	if ok {
		metrics.TwoFactorChecksTotal.WithLabelValues("ok").Inc()
	} else {
		metrics.TwoFactorChecksTotal.WithLabelValues("rejected").Inc()
	}
	return c.JSON(http.StatusOK, map[string]bool{"valid": ok})
}

// Enable completes setup by verifying the code against the fresh secret.
//
// @Summary      Enable two-factor authentication
// @Tags         two-factor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      twoFactorCodeRequest  true  "Code from the authenticator app"
// @Success      200   {object}  map[string]bool
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/2fa/enable [post]
func (h *TwoFactorHandler) Enable(c echo.Context) error {
	principal := middleware.PrincipalFrom(c)
	if principal == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	var req twoFactorCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ok, err := h.twoFactor.Enable(c.Request().Context(), principal.ID, req.Code)
	if err != nil {
		return err
	}
	if !ok {
		metrics.TwoFactorChecksTotal.WithLabelValues("rejected").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "verification code rejected")
	}
	metrics.TwoFactorChecksTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, map[string]bool{"enabled": true})
}
