package domain

import "errors"

var (
	ErrValidation            = errors.New("validation failed")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidToken          = errors.New("invalid token")
	ErrInvalidID             = errors.New("invalid id")
	ErrUnauthorized          = errors.New("unauthorized access")
	ErrNotFound              = errors.New("not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrAdminNotFound         = errors.New("admin not found")
	ErrUsernameInUse         = errors.New("username already in use")
	ErrEmailInUse            = errors.New("email already in use")
	ErrEmailAlreadyConfirmed = errors.New("email already confirmed")
	ErrVerificationMismatch  = errors.New("email verification token mismatch")
	ErrConfiguration         = errors.New("configuration error")
)
