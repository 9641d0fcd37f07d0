package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/askly/accounts-api/internal/core/domain"
)

// DefaultTokenTTL is the lifetime of an identity token when none is configured.
const DefaultTokenTTL = 36000 * time.Second

// TokenConfig is everything the token service needs. It is passed explicitly
// instead of being read from the environment.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// identityClaims is the JWT payload. The subject carries the identity id.
type identityClaims struct {
	jwt.RegisteredClaims
	Kind domain.SubjectKind `json:"kind"`
}

// JWTService issues and verifies HS256 identity tokens.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewJWTService validates cfg and returns a ready token service.
func NewJWTService(cfg TokenConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("%w: token signing secret is empty", domain.ErrConfiguration)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTService{
		secret: []byte(cfg.Secret),
		ttl:    ttl,
		issuer: cfg.Issuer,
		now:    time.Now,
	}, nil
}

// TTL returns the configured token lifetime.
func (s *JWTService) TTL() time.Duration { return s.ttl }

// Issue signs claims with an expiry of now + TTL.
func (s *JWTService) Issue(claims domain.Claims) (string, error) {
	if !claims.Kind.Valid() || claims.SubjectID == "" {
		return "", fmt.Errorf("issue token: incomplete claims")
	}

	now := s.now()
	payload := identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.SubjectID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Kind: claims.Kind,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// Verify returns the claims of a valid token. Malformed, tampered, expired and
// incomplete tokens all yield domain.ErrInvalidToken.
func (s *JWTService) Verify(token string) (domain.Claims, error) {
	var payload identityClaims
	parsed, err := jwt.ParseWithClaims(token, &payload, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return domain.Claims{}, domain.ErrInvalidToken
	}
	if !payload.Kind.Valid() || payload.Subject == "" {
		return domain.Claims{}, domain.ErrInvalidToken
	}
	return domain.Claims{Kind: payload.Kind, SubjectID: payload.Subject}, nil
}
