package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	SetSecret("unit-test-secret")

	token, err := GenerateToken(42, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "42", claims.Subject)

	remaining := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, remaining, 23*time.Hour)
	assert.LessOrEqual(t, remaining, 24*time.Hour)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	SetSecret("first-secret")
	token, err := GenerateToken(1, "alice")
	require.NoError(t, err)

	SetSecret("second-secret")
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	SetSecret("unit-test-secret")

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := ParseToken(tok)
		assert.Error(t, err)
	}
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	SetSecret("")
	defer SetSecret("unit-test-secret")

	_, err := GenerateToken(1, "alice")
	assert.Error(t, err)
}
