package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager("", time.Hour, time.Hour)
	require.Error(t, err)

	_, err = NewTokenManager("   ", time.Hour, time.Hour)
	require.Error(t, err)
}

func TestGenerateAndVerifyTokens(t *testing.T) {
	mgr, err := NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	require.NoError(t, err)

	access, refresh, err := mgr.GenerateTokens("user-1", "marco@example.com", false)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	claims, err := mgr.VerifyAccessToken(access)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "marco@example.com", claims.Email)
	require.False(t, claims.IsAdmin)

	refreshClaims, err := mgr.VerifyRefreshToken(refresh)
	require.NoError(t, err)
	require.Equal(t, "user-1", refreshClaims.Subject)
}

func TestTokenTypeSeparation(t *testing.T) {
	mgr, err := NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	require.NoError(t, err)

	access, refresh, err := mgr.GenerateTokens("user-1", "marco@example.com", true)
	require.NoError(t, err)

	// A refresh token must not pass as an access token, and vice versa
	_, err = mgr.VerifyAccessToken(refresh)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = mgr.VerifyRefreshToken(access)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	mgr, err := NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	require.NoError(t, err)
	other, err := NewTokenManager("other-secret", time.Hour, 24*time.Hour)
	require.NoError(t, err)

	access, _, err := mgr.GenerateTokens("user-1", "marco@example.com", false)
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(access)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	mgr, err := NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	require.NoError(t, err)
	mgr.accessTTL = -time.Minute

	access, _, err := mgr.GenerateTokens("user-1", "marco@example.com", false)
	require.NoError(t, err)

	_, err = mgr.VerifyAccessToken(access)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	mgr, err := NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	require.NoError(t, err)

	_, err = mgr.VerifyAccessToken("")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = mgr.VerifyAccessToken("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	token, ok := ExtractBearerToken("Bearer abc123")
	require.True(t, ok)
	require.Equal(t, "abc123", token)

	_, ok = ExtractBearerToken("abc123")
	require.False(t, ok)

	_, ok = ExtractBearerToken("Basic abc123")
	require.False(t, ok)

	_, ok = ExtractBearerToken("")
	require.False(t, ok)
}
