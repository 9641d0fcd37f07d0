package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/askly/accounts-api/internal/api/metrics"
	"github.com/askly/accounts-api/internal/core/domain"
	"github.com/askly/accounts-api/internal/core/ports"
)

// dummyHash is compared against when the username does not exist, so that a
// miss costs the same as a wrong password.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3/yAvVKr1rM1Ld5Za3e2f4a"

// AuthService implements login and caller resolution.
type AuthService struct {
	admins ports.AdminRepository
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	log    zerolog.Logger
}

func NewAuthService(
	admins ports.AdminRepository,
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{admins: admins, users: users, hasher: hasher, tokens: tokens, log: log}
}

// Login checks username and password within the namespace of kind and returns
// a signed token for the matching identity.
func (s *AuthService) Login(ctx context.Context, kind domain.SubjectKind, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	id, hash, err := s.lookupCredentials(ctx, kind, username)
	switch {
	case errors.Is(err, domain.ErrAdminNotFound), errors.Is(err, domain.ErrUserNotFound):
		_ = s.hasher.Compare(dummyHash, password)
		metrics.LoginAttemptsTotal.WithLabelValues(string(kind), "invalid").Inc()
		return "", domain.ErrInvalidCredentials
	case err != nil:
		return "", fmt.Errorf("login: %w", err)
	}

	if s.hasher.Compare(hash, password) != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(string(kind), "invalid").Inc()
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(domain.Claims{Kind: kind, SubjectID: id})
	if err != nil {
		return "", fmt.Errorf("login: issue token: %w", err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues(string(kind), "success").Inc()
	s.log.Info().Str("kind", string(kind)).Str("id", id).Msg("login succeeded")
	return token, nil
}

func (s *AuthService) lookupCredentials(ctx context.Context, kind domain.SubjectKind, username string) (string, string, error) {
	switch kind {
	case domain.KindAdmin:
		a, err := s.admins.FindByUsername(ctx, username)
		if err != nil {
			return "", "", err
		}
		return a.ID, a.PasswordHash, nil
	case domain.KindUser:
		u, err := s.users.FindByUsername(ctx, username)
		if err != nil {
			return "", "", err
		}
		return u.ID, u.PasswordHash, nil
	}
	return "", "", domain.ErrInvalidCredentials
}

// CurrentAdmin loads the admin a token refers to.
func (s *AuthService) CurrentAdmin(ctx context.Context, claims domain.Claims) (*domain.Admin, error) {
	if claims.Kind != domain.KindAdmin {
		return nil, domain.ErrUnauthorized
	}
	if !s.admins.ValidID(claims.SubjectID) {
		return nil, domain.ErrInvalidToken
	}

	admin, err := s.admins.FindByID(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrAdminNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("current admin: %w", err)
	}
	return admin, nil
}

// CurrentUser loads the user a token refers to.
func (s *AuthService) CurrentUser(ctx context.Context, claims domain.Claims) (*domain.User, error) {
	if claims.Kind != domain.KindUser {
		return nil, domain.ErrUnauthorized
	}
	if !s.users.ValidID(claims.SubjectID) {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("current user: %w", err)
	}
	return user, nil
}

// ResolveCaller turns verified claims into a caller backed by an existing record.
func (s *AuthService) ResolveCaller(ctx context.Context, claims domain.Claims) (domain.Caller, error) {
	switch claims.Kind {
	case domain.KindAdmin:
		a, err := s.CurrentAdmin(ctx, claims)
		if err != nil {
			return domain.Caller{}, err
		}
		return domain.AdminCaller(a), nil
	case domain.KindUser:
		u, err := s.CurrentUser(ctx, claims)
		if err != nil {
			return domain.Caller{}, err
		}
		return domain.UserCaller(u), nil
	}
	return domain.Caller{}, domain.ErrUnauthorized
}
