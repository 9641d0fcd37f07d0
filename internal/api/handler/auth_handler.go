package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/askly/accounts-api/internal/core/domain"
	"github.com/askly/accounts-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// AdminLogin authenticates an admin and returns a signed token.
//
// @Summary      Admin login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Admin credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  api.errorResponse
// @Failure      500   {object}  api.errorResponse
// @Router       /auth/admin/login [post]
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	return h.login(c, domain.KindAdmin)
}

// UserLogin authenticates a user and returns a signed token.
//
// @Summary      User login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "User credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  api.errorResponse
// @Failure      500   {object}  api.errorResponse
// @Router       /auth/user/login [post]
func (h *AuthHandler) UserLogin(c echo.Context) error {
	return h.login(c, domain.KindUser)
}

func (h *AuthHandler) login(c echo.Context, kind domain.SubjectKind) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := h.authService.Login(c.Request().Context(), kind, req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// CurrentAdmin returns the admin the token belongs to.
//
// @Summary      Current admin
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  adminResponse
// @Failure      400  {object}  api.errorResponse
// @Failure      401  {object}  api.errorResponse
// @Router       /auth/admin [get]
func (h *AuthHandler) CurrentAdmin(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	admin, err := h.authService.CurrentAdmin(c.Request().Context(), claims)
	if err != nil {
		return err
	}
	if domain.Authorize(domain.AdminCaller(admin), domain.ActionReadAdmin, claims.SubjectID) != domain.Allow {
		return domain.ErrUnauthorized
	}
	return c.JSON(http.StatusOK, toAdminResponse(admin))
}

// CurrentUser returns the user the token belongs to.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      400  {object}  api.errorResponse
// @Failure      401  {object}  api.errorResponse
// @Router       /auth/user [get]
func (h *AuthHandler) CurrentUser(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	user, err := h.authService.CurrentUser(c.Request().Context(), claims)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
