package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/askly/accounts-api/internal/api/metrics"
	"github.com/askly/accounts-api/internal/core/domain"
	"github.com/askly/accounts-api/internal/core/ports"
)

// UserServiceConfig holds the tunables of the user service.
type UserServiceConfig struct {
	// VerificationTTL bounds the lifetime of email verification tokens.
	// Zero disables expiry.
	VerificationTTL time.Duration
}

// UserService implements user account management.
type UserService struct {
	repo     ports.UserRepository
	hasher   ports.PasswordHasher
	tokens   ports.VerificationTokenGenerator
	window   ports.VerificationWindow
	notifier ports.VerificationNotifier
	cfg      UserServiceConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewUserService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.VerificationTokenGenerator,
	window ports.VerificationWindow,
	notifier ports.VerificationNotifier,
	cfg UserServiceConfig,
	log zerolog.Logger,
) *UserService {
	return &UserService{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		window:   window,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// authorize records denials and converts them to domain.ErrUnauthorized.
func authorize(caller domain.Caller, action domain.Action, targetID string) error {
	if domain.Authorize(caller, action, targetID) == domain.Allow {
		return nil
	}
	metrics.AuthorizationDeniedTotal.WithLabelValues(string(action), string(caller.Kind)).Inc()
	return domain.ErrUnauthorized
}

// List returns every user account.
func (s *UserService) List(ctx context.Context, caller domain.Caller) ([]*domain.User, error) {
	if err := authorize(caller, domain.ActionListUsers, ""); err != nil {
		return nil, err
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Get returns a single account. The id is validated before authorization so a
// malformed id never reveals whether anything exists.
func (s *UserService) Get(ctx context.Context, caller domain.Caller, id string) (*domain.User, error) {
	if !s.repo.ValidID(id) {
		return nil, domain.ErrInvalidID
	}
	if err := authorize(caller, domain.ActionReadUser, id); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

// Profile returns the public profile of a visible user.
func (s *UserService) Profile(ctx context.Context, username string) (*domain.PublicProfile, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("profile: %w", err)
	}
	if !user.PubliclyVisible() {
		return nil, domain.ErrNotFound
	}
	profile := user.Profile()
	return &profile, nil
}

// Create opens an account from the admin panel.
func (s *UserService) Create(ctx context.Context, caller domain.Caller, input ports.CreateUserInput) (*domain.User, error) {
	if err := authorize(caller, domain.ActionCreateUser, ""); err != nil {
		return nil, err
	}
	return s.create(ctx, input, "admin")
}

// Register opens an account on behalf of an anonymous visitor.
func (s *UserService) Register(ctx context.Context, input ports.CreateUserInput) (*domain.User, error) {
	return s.create(ctx, input, "register")
}

func (s *UserService) create(ctx context.Context, input ports.CreateUserInput, source string) (*domain.User, error) {
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	now := s.now()
	user := &domain.User{
		Username:               input.Username,
		Email:                  input.Email,
		PasswordHash:           hash,
		Settings:               domain.DefaultSettings(),
		EmailConfirmationToken: s.tokens.NewEmailVerificationToken(),
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUsernameInUse) || errors.Is(err, domain.ErrEmailInUse) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.startVerification(ctx, user, user.EmailConfirmationToken)
	metrics.UsersCreatedTotal.WithLabelValues(source).Inc()
	s.log.Info().Str("user_id", user.ID).Str("source", source).Msg("user created")
	return user, nil
}

// startVerification opens the expiry window and queues the verification email.
// The token stays valid without expiry when the window cannot be opened.
func (s *UserService) startVerification(ctx context.Context, user *domain.User, token string) {
	if s.openWindow(ctx, user.ID) {
		user.VerificationWindowed = true
	}
	if s.notifier != nil {
		s.notifier.Notify(ports.VerificationEmail{
			UserID:   user.ID,
			Username: user.Username,
			Email:    user.Email,
			Token:    token,
		})
	}
}

// openWindow starts the expiry window for id and records it on the user. It
// reports whether expiry is now enforced.
func (s *UserService) openWindow(ctx context.Context, id string) bool {
	if s.window == nil || s.cfg.VerificationTTL <= 0 {
		return false
	}
	if err := s.window.Open(ctx, id, s.cfg.VerificationTTL); err != nil {
		s.log.Warn().Err(err).Str("user_id", id).Msg("failed to open verification window, token will not expire")
		return false
	}
	windowed := true
	if _, err := s.repo.Update(ctx, id, domain.UserUpdate{VerificationWindowed: &windowed}); err != nil {
		s.log.Warn().Err(err).Str("user_id", id).Msg("failed to record verification window, token will not expire")
		return false
	}
	return true
}

// VerifyEmail confirms the user's email address when token matches the one
// issued last.
func (s *UserService) VerifyEmail(ctx context.Context, id, token string) error {
	if !s.repo.ValidID(id) {
		return domain.ErrInvalidID
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("verify email: %w", err)
	}
	if user.IsEmailConfirmed {
		return domain.ErrEmailAlreadyConfirmed
	}
	if !s.windowOpen(ctx, user) {
		metrics.EmailConfirmationsTotal.WithLabelValues("expired").Inc()
		return domain.ErrVerificationMismatch
	}
	if user.EmailConfirmationToken == "" || user.EmailConfirmationToken != token {
		metrics.EmailConfirmationsTotal.WithLabelValues("mismatch").Inc()
		return domain.ErrVerificationMismatch
	}

	if err := s.repo.ConfirmEmail(ctx, id, token); err != nil {
		if errors.Is(err, domain.ErrVerificationMismatch) {
			metrics.EmailConfirmationsTotal.WithLabelValues("mismatch").Inc()
			return err
		}
		return fmt.Errorf("verify email: %w", err)
	}

	if s.window != nil {
		if err := s.window.Close(ctx, id); err != nil {
			s.log.Warn().Err(err).Str("user_id", id).Msg("failed to close verification window")
		}
	}
	metrics.EmailConfirmationsTotal.WithLabelValues("confirmed").Inc()
	s.log.Info().Str("user_id", id).Msg("email confirmed")
	return nil
}

// windowOpen reports whether the user's token is still within its expiry
// window. Tokens issued without a window, and window store errors, are
// accepted.
func (s *UserService) windowOpen(ctx context.Context, user *domain.User) bool {
	if !user.VerificationWindowed || s.window == nil {
		return true
	}
	open, err := s.window.IsOpen(ctx, user.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("verification window check failed, accepting token")
		return true
	}
	return open
}

// Update applies a partial update. Ban changes additionally require the
// ban-status permission.
func (s *UserService) Update(ctx context.Context, caller domain.Caller, id string, input ports.UpdateUserInput) (*domain.User, error) {
	if !s.repo.ValidID(id) {
		return nil, domain.ErrInvalidID
	}
	if err := authorize(caller, domain.ActionUpdateUser, id); err != nil {
		return nil, err
	}
	if input.BanStatus != nil {
		if err := authorize(caller, domain.ActionUpdateBanStatus, id); err != nil {
			return nil, err
		}
	}

	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	update, verifyToken, err := s.buildUpdate(caller, input)
	if err != nil {
		return nil, err
	}
	if update.Empty() {
		return current, nil
	}

	updated, err := s.repo.Update(ctx, id, update)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return nil, domain.ErrInvalidID
		case errors.Is(err, domain.ErrUsernameInUse), errors.Is(err, domain.ErrEmailInUse):
			return nil, err
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	if verifyToken != "" {
		s.startVerification(ctx, updated, verifyToken)
	}
	s.log.Info().Str("user_id", id).Str("caller", caller.ID).Msg("user updated")
	return updated, nil
}

func (s *UserService) buildUpdate(caller domain.Caller, input ports.UpdateUserInput) (domain.UserUpdate, string, error) {
	var (
		update      domain.UserUpdate
		verifyToken string
	)

	if input.Username != "" {
		update.Username = &input.Username
	}
	if input.Email != "" {
		confirmed, windowed := false, false
		verifyToken = s.tokens.NewEmailVerificationToken()
		update.Email = &input.Email
		update.IsEmailConfirmed = &confirmed
		update.EmailConfirmationToken = &verifyToken
		update.VerificationWindowed = &windowed
	}
	if input.Password != "" {
		hash, err := s.hasher.Hash(input.Password)
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				return domain.UserUpdate{}, "", err
			}
			return domain.UserUpdate{}, "", fmt.Errorf("update user: %w", err)
		}
		update.PasswordHash = &hash
	}
	if input.ProfileImgURL != "" {
		update.ProfileImgURL = &input.ProfileImgURL
	}
	if input.Settings != nil {
		update.IsAskable = input.Settings.IsAskable
		update.IsViewable = input.Settings.IsViewable
	}
	if input.BanStatus != nil {
		update.BanStatus = s.banStatus(caller, input.BanStatus)
	}
	return update, verifyToken, nil
}

func (s *UserService) banStatus(caller domain.Caller, in *ports.BanStatusInput) *domain.BanStatus {
	if in.IsBanned != nil && !*in.IsBanned {
		return &domain.BanStatus{}
	}
	now := s.now()
	return &domain.BanStatus{IsBanned: true, BannedBy: caller.ID, BanDate: &now}
}

// Delete removes an account and returns the removed record.
func (s *UserService) Delete(ctx context.Context, caller domain.Caller, id string) (*domain.User, error) {
	if !s.repo.ValidID(id) {
		return nil, domain.ErrInvalidID
	}
	if err := authorize(caller, domain.ActionDeleteUser, id); err != nil {
		return nil, err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("delete user: %w", err)
	}
	if s.window != nil {
		if err := s.window.Close(ctx, id); err != nil {
			s.log.Warn().Err(err).Str("user_id", id).Msg("failed to close verification window")
		}
	}
	s.log.Info().Str("user_id", id).Str("caller", caller.ID).Msg("user deleted")
	return deleted, nil
}

func (s *UserService) find(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
