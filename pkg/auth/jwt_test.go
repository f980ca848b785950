package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	SetSecret("test-secret")

	token, err := GenerateToken(42, "alice", 60)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestRejectsBadTokens(t *testing.T) {
	SetSecret("test-secret")

	expired, err := GenerateToken(1, "bob", -60)
	require.NoError(t, err)
	_, err = ParseToken(expired)
	assert.Error(t, err)

	token, err := GenerateToken(1, "bob", 60)
	require.NoError(t, err)
	SetSecret("rotated")
	_, err = ParseToken(token)
	assert.Error(t, err)

	_, err = ParseToken("not-a-token")
	assert.Error(t, err)
}
