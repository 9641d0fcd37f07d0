package ports

import (
	"context"

	"github.com/askly/accounts-api/internal/core/domain"
)

// AdminRepository defines persistence operations for admin accounts.
type AdminRepository interface {
	ValidID(id string) bool
	FindByID(ctx context.Context, id string) (*domain.Admin, error)
	FindByUsername(ctx context.Context, username string) (*domain.Admin, error)
	// Create inserts the admin and sets admin.ID. Returns domain.ErrUsernameInUse
	// when the username is taken.
	Create(ctx context.Context, admin *domain.Admin) error
}
