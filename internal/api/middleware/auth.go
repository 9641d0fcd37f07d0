package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/askly/accounts-api/internal/core/domain"
	"github.com/askly/accounts-api/internal/core/ports"
)

// Context keys under which the middleware stores request identity.
const (
	ClaimsKey = "claims"
	CallerKey = "caller"

	// HeaderAuthToken is the alternative token header accepted next to Authorization.
	HeaderAuthToken = "x-auth-token"
)

// Authenticate verifies the request token and injects its claims into the
// context. When kinds is non-empty the token must belong to one of them.
func Authenticate(verifier ports.TokenVerifier, kinds ...domain.SubjectKind) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := tokenFromRequest(c)
			if err != nil {
				return err
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				return domain.ErrInvalidToken
			}
			if !kindAllowed(claims.Kind, kinds) {
				return domain.ErrUnauthorized
			}

			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// tokenFromRequest reads "Authorization: Bearer <token>", falling back to x-auth-token.
func tokenFromRequest(c echo.Context) (string, error) {
	header := c.Request().Header

	if authHeader := header.Get(echo.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", domain.ErrInvalidToken
		}
		return strings.TrimSpace(parts[1]), nil
	}

	if tok := strings.TrimSpace(header.Get(HeaderAuthToken)); tok != "" {
		return tok, nil
	}
	return "", domain.ErrUnauthorized
}

func kindAllowed(kind domain.SubjectKind, kinds []domain.SubjectKind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Claims returns the claims stored by Authenticate.
func Claims(c echo.Context) (domain.Claims, bool) {
	claims, ok := c.Get(ClaimsKey).(domain.Claims)
	return claims, ok
}
