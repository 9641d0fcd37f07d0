package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/askly/accounts-api/internal/core/domain"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("pw1")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", hash)
	assert.NoError(t, h.Compare(hash, "pw1"))
	assert.Error(t, h.Compare(hash, "wrong"))
}

func TestBcryptHasher_PasswordTooLong(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("a", 73))
	require.ErrorIs(t, err, domain.ErrValidation)

	// Multi-byte runes count by byte: 25 runes of 3 bytes each.
	_, err = h.Hash(strings.Repeat("€", 25))
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.Hash(strings.Repeat("a", 72))
	assert.NoError(t, err)
}

func TestNewBcryptHasher_OutOfRangeCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).cost)
}

func TestVerificationTokens_Unique(t *testing.T) {
	g := NewVerificationTokens()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok := g.NewEmailVerificationToken()
		assert.Len(t, tok, 32)
		assert.False(t, seen[tok], "duplicate token %s", tok)
		seen[tok] = true
	}
}
