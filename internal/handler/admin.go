package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tricket/internal/middleware"
	"github.com/iliyamo/tricket/internal/service"
	"github.com/iliyamo/tricket/internal/utils"
)

// AdminHandler issues admin tokens and clears the production cache.
type AdminHandler struct {
	Tricket      *service.Tricket
	JWTSecret    string
	PasswordHash string
	TokenTTL     time.Duration
}

type tokenRequest struct {
	Password string `json:"password"`
}

// IssueToken exchanges the admin password for a short-lived JWT carrying
// the ADMIN role.
func (h *AdminHandler) IssueToken(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password is required"})
	}
	if h.PasswordHash == "" || !utils.VerifyPassword(h.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := utils.NewAccessToken(h.JWTSecret, "admin", utils.RoleAdmin, h.TokenTTL)
	if err != nil {
		c.Logger().Errorf("admin: sign token: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": tok.Token,
		"token_type":   "Bearer",
		"expires_at":   tok.Exp,
	})
}

// ClearCache drops the cached production list. The next read fetches from
// the upstream API again.
func (h *AdminHandler) ClearCache(c echo.Context) error {
	h.Tricket.ClearCache(c.Request().Context(), middleware.Subject(c))
	return c.JSON(http.StatusOK, echo.Map{"cleared": service.ProductionsCacheKey})
}
