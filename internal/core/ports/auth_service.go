package ports

import (
	"context"

	"github.com/askly/accounts-api/internal/core/domain"
)

// AuthService authenticates credentials and resolves token claims to callers.
type AuthService interface {
	Login(ctx context.Context, kind domain.SubjectKind, username, password string) (string, error)
	CurrentAdmin(ctx context.Context, claims domain.Claims) (*domain.Admin, error)
	CurrentUser(ctx context.Context, claims domain.Claims) (*domain.User, error)
	ResolveCaller(ctx context.Context, claims domain.Claims) (domain.Caller, error)
}
