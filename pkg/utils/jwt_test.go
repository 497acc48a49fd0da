package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "novel-copilot")

	pair, err := m.GenerateTokenPair("user-1", "a@b.c", "writer", time.Hour, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3600), pair.ExpiresIn)

	claims, err := m.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "writer", claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.Type)

	refresh, err := m.ParseToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.Type)
}

func TestJWTManager_Expired(t *testing.T) {
	m := NewJWTManager("secret", "novel-copilot")
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := m.GenerateToken("user-1", "", "writer", TokenTypeAccess, time.Hour)
	require.NoError(t, err)

	_, err = m.ParseToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTManager_WrongSecretOrIssuer(t *testing.T) {
	token, err := NewJWTManager("secret", "novel-copilot").GenerateToken("user-1", "", "writer", TokenTypeAccess, time.Hour)
	require.NoError(t, err)

	_, err = NewJWTManager("other", "novel-copilot").ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewJWTManager("secret", "someone-else").ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewJWTManager("secret", "").ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
