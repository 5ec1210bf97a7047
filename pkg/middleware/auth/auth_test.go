package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/art_shop/pkg/tokens"
)

var secret = []byte("test-jwt-secret")

func newCtx(t *testing.T, mutate func(r *http.Request)) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, UserID(c).String())
}

func TestAuthenticate_Anonymous(t *testing.T) {
	m := NewAuthenticator(secret, false)
	c, rec := newCtx(t, nil)

	require.NoError(t, m.Authenticate(okHandler)(c))
	assert.Equal(t, uuid.Nil.String(), rec.Body.String())
}

func TestRequireAuth_BearerAndCookie(t *testing.T) {
	m := NewAuthenticator(secret, false)
	userID := uuid.New()
	token, err := tokens.SignAccessToken(userID, "u@example.com", secret, time.Now().Add(time.Hour))
	require.NoError(t, err)

	c, rec := newCtx(t, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })
	require.NoError(t, m.RequireAuth(okHandler)(c))
	assert.Equal(t, userID.String(), rec.Body.String())

	c, rec = newCtx(t, func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessCookie, Value: token}) })
	require.NoError(t, m.RequireAuth(okHandler)(c))
	assert.Equal(t, userID.String(), rec.Body.String())
}

func TestRequireAuth_Rejects(t *testing.T) {
	m := NewAuthenticator(secret, false)

	c, _ := newCtx(t, nil)
	err := m.RequireAuth(okHandler)(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)

	c, _ = newCtx(t, func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") })
	err = m.Authenticate(okHandler)(c)
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}
