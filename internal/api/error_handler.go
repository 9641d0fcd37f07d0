package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/askly/accounts-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

type apiError struct {
	status int
	code   string
	msg    string
}

// domainErrors maps domain sentinels to their HTTP representation. Order
// matters: the first match wins.
var domainErrors = []struct {
	err error
	apiError
}{
	{domain.ErrInvalidCredentials, apiError{http.StatusBadRequest, "INVALID_CREDENTIALS", "invalid credentials"}},
	{domain.ErrInvalidID, apiError{http.StatusBadRequest, "INVALID_ID", "invalid id"}},
	{domain.ErrInvalidToken, apiError{http.StatusBadRequest, "INVALID_TOKEN", "invalid token"}},
	{domain.ErrVerificationMismatch, apiError{http.StatusUnauthorized, "INVALID_TOKEN", "invalid or expired verification token"}},
	{domain.ErrUnauthorized, apiError{http.StatusUnauthorized, "UNAUTHORIZED_ACCESS", "unauthorized access"}},
	{domain.ErrUsernameInUse, apiError{http.StatusBadRequest, "USERNAME_ALREADY_IN_USE", "username already in use"}},
	{domain.ErrEmailInUse, apiError{http.StatusBadRequest, "EMAIL_ALREADY_IN_USE", "email already in use"}},
	{domain.ErrEmailAlreadyConfirmed, apiError{http.StatusBadRequest, "EMAIL_ALREADY_CONFIRMED", "email already confirmed"}},
	{domain.ErrNotFound, apiError{http.StatusNotFound, "NOT_FOUND", "not found"}},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and error code.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"code": "<CODE>", "error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		e := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(e.status)
			return
		}
		_ = c.JSON(e.status, errorResponse{Code: e.code, Error: e.msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) apiError {
	// Validation failures carry the field messages.
	if errors.Is(err, domain.ErrValidation) {
		return apiError{http.StatusBadRequest, "VALIDATION_ERROR", err.Error()}
	}

	for _, de := range domainErrors {
		if errors.Is(err, de.err) {
			return de.apiError
		}
	}

	// Echo's own errors (router 404/405, timeouts, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := fmt.Sprintf("%v", he.Message)
		switch {
		case he.Code == http.StatusNotFound || he.Code == http.StatusMethodNotAllowed:
			return apiError{he.Code, "NOT_FOUND", msg}
		case he.Code == http.StatusUnauthorized:
			return apiError{he.Code, "UNAUTHORIZED_ACCESS", msg}
		case he.Code == http.StatusServiceUnavailable:
			return apiError{he.Code, "SERVICE_UNAVAILABLE", msg}
		case he.Code < http.StatusInternalServerError:
			return apiError{he.Code, "VALIDATION_ERROR", msg}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apiError{http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "request timed out"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return apiError{http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error"}
}
