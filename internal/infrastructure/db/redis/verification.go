package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// VerificationWindow tracks how long an email verification token stays usable.
// Key format: email_verify:<user_id>
type VerificationWindow struct {
	client *redis.Client
}

// NewVerificationWindow creates a VerificationWindow wrapping the given Redis client.
func NewVerificationWindow(client *redis.Client) *VerificationWindow {
	return &VerificationWindow{client: client}
}

// Open starts (or restarts) the window for userID. It expires after ttl.
func (w *VerificationWindow) Open(ctx context.Context, userID string, ttl time.Duration) error {
	if err := w.client.Set(ctx, windowKey(userID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("open verification window: %w", err)
	}
	return nil
}

// IsOpen reports whether the window for userID has not expired yet.
func (w *VerificationWindow) IsOpen(ctx context.Context, userID string) (bool, error) {
	n, err := w.client.Exists(ctx, windowKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("verification window check: %w", err)
	}
	return n > 0, nil
}

func (w *VerificationWindow) Close(ctx context.Context, userID string) error {
	if err := w.client.Del(ctx, windowKey(userID)).Err(); err != nil {
		return fmt.Errorf("close verification window: %w", err)
	}
	return nil
}

func windowKey(userID string) string {
	return "email_verify:" + userID
}
