package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	jwthelp "github.com/Skotchmaster/art_shop/pkg/jwt"
	"github.com/Skotchmaster/art_shop/pkg/tokens"
)

const (
	AccessCookie = "accessToken"
	CtxUserID    = "user_id"
	CtxEmail     = "email"
)

type Authenticator struct {
	JWTSecret    []byte
	SecureCookie bool
}

func NewAuthenticator(secret []byte, secureCookie bool) *Authenticator {
	return &Authenticator{JWTSecret: secret, SecureCookie: secureCookie}
}

// Authenticate resolves the caller when a token is present and lets anonymous
// requests through. An invalid token is rejected rather than downgraded.
func (m *Authenticator) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := tokenFromRequest(c)
		if raw == "" {
			return next(c)
		}
		if err := m.resolve(c, raw); err != nil {
			return err
		}
		return next(c)
	}
}

func (m *Authenticator) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := tokenFromRequest(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}
		if err := m.resolve(c, raw); err != nil {
			return err
		}
		return next(c)
	}
}

func (m *Authenticator) resolve(c echo.Context, raw string) error {
	claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
	if err != nil {
		c.SetCookie(jwthelp.DeleteCookie(AccessCookie, "/", m.SecureCookie))
		if errors.Is(err, jwt.ErrTokenExpired) {
			return echo.NewHTTPError(http.StatusUnauthorized, "access token expired")
		}
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
	}

	userID, err := claims.UserID()
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
	}

	c.Set(CtxUserID, userID)
	c.Set(CtxEmail, claims.Email)
	return nil
}

func tokenFromRequest(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		parts := strings.Fields(h)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	if ck, err := c.Cookie(AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}

// UserID returns the authenticated caller, or uuid.Nil for anonymous requests.
func UserID(c echo.Context) uuid.UUID {
	if id, ok := c.Get(CtxUserID).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
