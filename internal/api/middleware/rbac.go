package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/askly/accounts-api/internal/core/domain"
	"github.com/askly/accounts-api/internal/core/ports"
)

// ResolveCaller loads the identity behind the verified claims and stores it,
// with its permissions, as the request caller. A token whose identity no
// longer exists is rejected. Must run after Authenticate.
func ResolveCaller(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := Claims(c)
			if !ok {
				return domain.ErrUnauthorized
			}

			caller, err := auth.ResolveCaller(c.Request().Context(), claims)
			if err != nil {
				return err
			}

			c.Set(CallerKey, caller)
			return next(c)
		}
	}
}

// Caller returns the caller stored by ResolveCaller.
func Caller(c echo.Context) (domain.Caller, bool) {
	caller, ok := c.Get(CallerKey).(domain.Caller)
	return caller, ok
}
