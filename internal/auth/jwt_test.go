package auth

import (
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateTokens(t *testing.T) {
	a := NewJWTAuthenticator("access-secret", "refresh-secret", time.Hour, 24*time.Hour, "triplea", "triplea")

	access, refresh, err := a.GenerateTokens(42)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	parsed, err := a.ValidateAccessToken(access)
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "42", fmt.Sprintf("%.f", claims["sub"]))

	parsed, err = a.ValidateRefreshToken(refresh)
	require.NoError(t, err)

	// the two tokens are signed with different secrets
	_, err = a.ValidateAccessToken(refresh)
	assert.Error(t, err)
	_, err = a.ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestValidateExpiredToken(t *testing.T) {
	a := NewJWTAuthenticator("access-secret", "refresh-secret", -time.Minute, -time.Minute, "triplea", "triplea")

	access, _, err := a.GenerateTokens(42)
	require.NoError(t, err)

	_, err = a.ValidateAccessToken(access)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}
