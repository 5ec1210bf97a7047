package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/art_shop/internal/service"
	"github.com/Skotchmaster/art_shop/internal/transport"
	jwthelp "github.com/Skotchmaster/art_shop/pkg/jwt"
	"github.com/Skotchmaster/art_shop/pkg/logging"
	middleware "github.com/Skotchmaster/art_shop/pkg/middleware/auth"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	SecureCookie bool
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.CredentialsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(l, "register_error", err)
	}

	return c.JSON(http.StatusCreated, map[string]any{"id": user.ID, "email": user.Email})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.CredentialsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			l.Warn("login_error", "status", 401, "reason", "invalid credentials")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		}
		return respondError(l, "login_error", err)
	}

	c.SetCookie(jwthelp.CreateCookie(middleware.AccessCookie, res.AccessToken, "/", res.AccessExp, h.SecureCookie))

	l.Info("login_success", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, transport.LoginResponse{
		AccessToken: res.AccessToken,
		ExpiresAt:   res.AccessExp,
		UserID:      res.User.ID,
		IsAdmin:     res.IsAdmin,
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	c.SetCookie(jwthelp.DeleteCookie(middleware.AccessCookie, "/", h.SecureCookie))
	return c.NoContent(http.StatusNoContent)
}
