package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, "coach@example.com", RoleTrainer, 3, 30)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	claims, err := VerifyAccessToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.AccountID)
	assert.Equal(t, "coach@example.com", claims.Subject)
	assert.Equal(t, string(RoleTrainer), claims.Role)
	assert.Equal(t, 3, claims.TokenVersion)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, "coach@example.com", RoleTrainer, 0, 30)
	require.NoError(t, err)

	_, err = VerifyAccessToken("wrong-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenExpired(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, "coach@example.com", RoleTrainer, 0, -1)
	require.NoError(t, err)

	_, err = VerifyAccessToken(testSecret, tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenGarbage(t *testing.T) {
	_, err := VerifyAccessToken(testSecret, "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestScopedTokenRoundTrip(t *testing.T) {
	raw, err := NewScopedToken(testSecret, 7, "a@b.com", ScopePasswordReset, 15*time.Minute)
	require.NoError(t, err)

	claims, err := VerifyScopedToken(testSecret, raw, ScopePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.AccountID)
	assert.Equal(t, "a@b.com", claims.Subject)
	assert.Equal(t, ScopePasswordReset, claims.Scope)
}

// A reset token must never pass as a verification token, and vice
// versa, even though both carry a valid signature.
func TestScopedTokenScopeIsolation(t *testing.T) {
	reset, err := NewScopedToken(testSecret, 7, "a@b.com", ScopePasswordReset, 15*time.Minute)
	require.NoError(t, err)
	verify, err := NewScopedToken(testSecret, 7, "a@b.com", ScopeEmailVerification, 24*time.Hour)
	require.NoError(t, err)

	_, err = VerifyScopedToken(testSecret, reset, ScopeEmailVerification)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = VerifyScopedToken(testSecret, verify, ScopePasswordReset)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// An access token presented where a scoped token is expected has no
// scope claim and must be rejected.
func TestScopedTokenRejectsAccessToken(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 7, "a@b.com", RoleTrainer, 0, 30)
	require.NoError(t, err)

	_, err = VerifyScopedToken(testSecret, tok.Token, ScopePasswordReset)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestScopedTokenExpired(t *testing.T) {
	raw, err := NewScopedToken(testSecret, 7, "a@b.com", ScopePasswordReset, -time.Minute)
	require.NoError(t, err)

	_, err = VerifyScopedToken(testSecret, raw, ScopePasswordReset)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewRefreshToken(t *testing.T) {
	tok, err := NewRefreshToken(30)
	require.NoError(t, err)
	// 48 random bytes, hex-encoded.
	assert.Len(t, tok.Raw, 96)
	assert.True(t, tok.Exp.After(time.Now().UTC().Add(29*24*time.Hour)))

	other, err := NewRefreshToken(30)
	require.NoError(t, err)
	assert.NotEqual(t, tok.Raw, other.Raw)
}

func TestHashRefreshRaw(t *testing.T) {
	h1 := HashRefreshRaw("abc")
	h2 := HashRefreshRaw("abc")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, HashRefreshRaw("abd"))
}
