package ports

import (
	"context"

	"github.com/askly/accounts-api/internal/core/domain"
)

// CreateUserInput carries the fields required to open an account.
type CreateUserInput struct {
	Username string
	Password string
	Email    string
}

// SettingsInput holds optional visibility flags. Nil means unchanged.
type SettingsInput struct {
	IsAskable  *bool
	IsViewable *bool
}

// BanStatusInput requests a ban toggle. IsBanned=false lifts the ban; anything
// else (including nil) bans the user.
type BanStatusInput struct {
	IsBanned *bool
}

// UpdateUserInput is a partial update. Empty strings and nil pointers mean
// "leave unchanged".
type UpdateUserInput struct {
	Username      string
	Password      string
	Email         string
	ProfileImgURL string
	Settings      *SettingsInput
	BanStatus     *BanStatusInput
}

// UserService defines the use-case operations on user accounts.
type UserService interface {
	List(ctx context.Context, caller domain.Caller) ([]*domain.User, error)
	Get(ctx context.Context, caller domain.Caller, id string) (*domain.User, error)
	Profile(ctx context.Context, username string) (*domain.PublicProfile, error)
	Create(ctx context.Context, caller domain.Caller, input CreateUserInput) (*domain.User, error)
	Register(ctx context.Context, input CreateUserInput) (*domain.User, error)
	VerifyEmail(ctx context.Context, id, token string) error
	Update(ctx context.Context, caller domain.Caller, id string, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, caller domain.Caller, id string) (*domain.User, error)
}
