package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/askly/accounts-api/internal/core/domain"
	"github.com/askly/accounts-api/internal/core/ports"
)

// BootstrapAdminInput describes the super-admin ensured at startup.
type BootstrapAdminInput struct {
	Username string
	Password string
	Email    string
}

// BootstrapAdmin creates a super-admin with the given credentials unless an
// admin with that username already exists. It reports whether one was created.
func BootstrapAdmin(ctx context.Context, admins ports.AdminRepository, hasher ports.PasswordHasher, in BootstrapAdminInput, log zerolog.Logger) (bool, error) {
	if in.Username == "" || in.Password == "" {
		return false, fmt.Errorf("bootstrap admin: %w: username and password are required", domain.ErrConfiguration)
	}

	_, err := admins.FindByUsername(ctx, in.Username)
	switch {
	case err == nil:
		log.Debug().Str("username", in.Username).Msg("bootstrap admin already exists")
		return false, nil
	case !errors.Is(err, domain.ErrAdminNotFound):
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}

	hash, err := hasher.Hash(in.Password)
	if err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}

	admin := &domain.Admin{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Permissions:  domain.PermSuperAdmin | domain.PermManageUsers,
		CreatedAt:    time.Now().UTC(),
	}
	if err := admins.Create(ctx, admin); err != nil {
		// Another instance won the race.
		if errors.Is(err, domain.ErrUsernameInUse) {
			return false, nil
		}
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}

	log.Info().Str("admin_id", admin.ID).Str("username", admin.Username).Msg("bootstrap admin created")
	return true, nil
}
