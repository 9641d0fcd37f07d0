package ports

import (
	"context"

	"github.com/askly/accounts-api/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
//
// Create and Update return domain.ErrUsernameInUse or domain.ErrEmailInUse when
// a uniqueness constraint is violated. Lookups return domain.ErrUserNotFound.
type UserRepository interface {
	// ValidID reports whether id is a well-formed identifier for this store.
	ValidID(id string) bool
	List(ctx context.Context) ([]*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// Create inserts the user and sets user.ID.
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error)
	// ConfirmEmail marks the email confirmed and clears the token, only if the
	// stored token equals token and the email is still unconfirmed.
	// Returns domain.ErrVerificationMismatch when no record matched.
	ConfirmEmail(ctx context.Context, id, token string) error
	Delete(ctx context.Context, id string) (*domain.User, error)
}
