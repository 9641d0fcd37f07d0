package ports

import "github.com/askly/accounts-api/internal/core/domain"

// TokenIssuer mints signed identity tokens.
type TokenIssuer interface {
	Issue(claims domain.Claims) (string, error)
}

// TokenVerifier checks identity tokens. Every failure is domain.ErrInvalidToken.
type TokenVerifier interface {
	Verify(token string) (domain.Claims, error)
}

// TokenService issues and verifies identity tokens.
type TokenService interface {
	TokenIssuer
	TokenVerifier
}

// PasswordHasher hashes and compares passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil when password matches hash.
	Compare(hash, password string) error
}

// VerificationTokenGenerator produces single-use email verification tokens.
type VerificationTokenGenerator interface {
	NewEmailVerificationToken() string
}
