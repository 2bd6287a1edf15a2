package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSigner_RequiresSecret(t *testing.T) {
	_, err := NewSigner("")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestSigner_RoundTrip(t *testing.T) {
	s, err := NewSigner("s3cret")
	require.NoError(t, err)

	token, err := s.GenerateToken("host-1", time.Hour)
	require.NoError(t, err)

	claims, err := s.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "host-1", claims.Subject)
	assert.Equal(t, issuer, claims.Issuer)
}

func TestSigner_RejectsBadTokens(t *testing.T) {
	s, err := NewSigner("s3cret")
	require.NoError(t, err)
	other, err := NewSigner("other")
	require.NoError(t, err)

	foreign, err := other.GenerateToken("host-1", time.Hour)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x", "iss": issuer})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not.a.token",
		"wrong secret": foreign,
		"alg none":     unsigned,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.ParseToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestSigner_Expiry(t *testing.T) {
	s, err := NewSigner("s3cret")
	require.NoError(t, err)

	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }
	token, err := s.GenerateToken("host-1", time.Minute)
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(30 * time.Second) }
	_, err = s.ParseToken(token)
	assert.NoError(t, err)

	s.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = s.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_NoExpiry(t *testing.T) {
	s, err := NewSigner("s3cret")
	require.NoError(t, err)

	token, err := s.GenerateToken("cli", 0)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(24 * 365 * time.Hour) }
	_, err = s.ParseToken(token)
	assert.NoError(t, err)
}
