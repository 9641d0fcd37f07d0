package ports

import (
	"context"
	"time"
)

// VerificationWindow bounds how long an email verification token stays usable.
type VerificationWindow interface {
	Open(ctx context.Context, userID string, ttl time.Duration) error
	IsOpen(ctx context.Context, userID string) (bool, error)
	Close(ctx context.Context, userID string) error
}

// VerificationEmail is the message sent to a user to confirm their address.
type VerificationEmail struct {
	UserID   string
	Username string
	Email    string
	Token    string
}

// VerificationNotifier hands verification emails off for delivery.
type VerificationNotifier interface {
	Notify(msg VerificationEmail)
}

// VerificationMailer delivers a single verification email.
type VerificationMailer interface {
	SendVerification(ctx context.Context, msg VerificationEmail) error
}
