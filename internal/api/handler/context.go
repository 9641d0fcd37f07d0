package handler

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/askly/accounts-api/internal/api/middleware"
	"github.com/askly/accounts-api/internal/core/domain"
)

// ctxClaims returns the verified token claims. Their absence means the route
// was mounted without the Authenticate middleware.
func ctxClaims(c echo.Context) (domain.Claims, error) {
	claims, ok := middleware.Claims(c)
	if !ok {
		return domain.Claims{}, domain.ErrUnauthorized
	}
	return claims, nil
}

// ctxCaller returns the caller resolved by the ResolveCaller middleware.
func ctxCaller(c echo.Context) (domain.Caller, error) {
	caller, ok := middleware.Caller(c)
	if !ok || caller.ID == "" {
		return domain.Caller{}, domain.ErrUnauthorized
	}
	return caller, nil
}

// bindAndValidate decodes the request body into req and runs the validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrValidation)
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}

// jsonFieldName reports fields by their JSON name in validation messages.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}
