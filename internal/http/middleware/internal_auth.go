package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"jurisync/internal/utils/apierror"
)

// NewInternalAuth guards the operator routes (sync trigger, term management)
// with a shared secret. Client tokens never reach these endpoints.
func NewInternalAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return c.JSON(http.StatusServiceUnavailable, apierror.NewSimple(503, "Internal API is not configured"))
			}

			provided := c.Request().Header.Get("X-Internal-Token")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				return c.JSON(http.StatusUnauthorized, apierror.UnauthorizedError)
			}
			return next(c)
		}
	}
}
