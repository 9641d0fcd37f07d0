package handler

import (
	"time"

	"github.com/askly/accounts-api/internal/core/domain"
	"github.com/askly/accounts-api/internal/core/ports"
)

// --- Request types ---

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,max=72"`
	Email    string `json:"email" validate:"required,email"`
}

func (r createUserRequest) toInput() ports.CreateUserInput {
	return ports.CreateUserInput{Username: r.Username, Password: r.Password, Email: r.Email}
}

type settingsRequest struct {
	IsAskable  *bool `json:"is_askable"`
	IsViewable *bool `json:"is_viewable"`
}

type banStatusRequest struct {
	IsBanned *bool `json:"is_banned"`
}

type updateUserRequest struct {
	Username      string            `json:"username"`
	Password      string            `json:"password" validate:"omitempty,max=72"`
	Email         string            `json:"email" validate:"omitempty,email"`
	ProfileImgURL string            `json:"profile_img_url" validate:"omitempty,url"`
	Settings      *settingsRequest  `json:"settings"`
	BanStatus     *banStatusRequest `json:"ban_status"`
}

func (r updateUserRequest) toInput() ports.UpdateUserInput {
	in := ports.UpdateUserInput{
		Username:      r.Username,
		Password:      r.Password,
		Email:         r.Email,
		ProfileImgURL: r.ProfileImgURL,
	}
	if r.Settings != nil {
		in.Settings = &ports.SettingsInput{IsAskable: r.Settings.IsAskable, IsViewable: r.Settings.IsViewable}
	}
	if r.BanStatus != nil {
		in.BanStatus = &ports.BanStatusInput{IsBanned: r.BanStatus.IsBanned}
	}
	return in
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// --- Response types ---

type tokenResponse struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type adminResponse struct {
	ID          string                  `json:"id"`
	Username    string                  `json:"username"`
	Email       string                  `json:"email,omitempty"`
	Permissions domain.AdminPermissions `json:"permissions"`
	CreatedAt   time.Time               `json:"created_at"`
}

func toAdminResponse(a *domain.Admin) adminResponse {
	return adminResponse{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		Permissions: a.PermissionFlags(),
		CreatedAt:   a.CreatedAt,
	}
}
