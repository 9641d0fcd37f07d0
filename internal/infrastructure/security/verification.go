package security

import (
	"strings"

	"github.com/google/uuid"
)

// VerificationTokens generates opaque single-use email verification tokens.
type VerificationTokens struct{}

func NewVerificationTokens() VerificationTokens { return VerificationTokens{} }

// NewEmailVerificationToken returns a random UUIDv4 as 32 hex characters.
func (VerificationTokens) NewEmailVerificationToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
