package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/art_shop/internal/service"
	"github.com/Skotchmaster/art_shop/pkg/logging"
	middleware "github.com/Skotchmaster/art_shop/pkg/middleware/auth"
)

const ctxAdmin = "admin_capability"

type AdminHTTP struct {
	Access *service.AccessService
}

// RequireAdmin resolves the caller's admin capability and stores it in the
// echo context for the admin handlers.
func (h *AdminHTTP) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "admin.guard")

		admin, err := h.Access.RequireAdmin(ctx, middleware.UserID(c))
		if err != nil {
			return respondError(l, "admin_guard_error", err)
		}
		c.Set(ctxAdmin, admin)
		return next(c)
	}
}

func adminFrom(c echo.Context) (service.AdminCapability, bool) {
	admin, ok := c.Get(ctxAdmin).(service.AdminCapability)
	return admin, ok
}

func (h *AdminHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, map[string]bool{
		"is_admin": h.Access.IsAdmin(ctx, middleware.UserID(c)),
	})
}
