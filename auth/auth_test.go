package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPassword(hash, "correct horse battery staple"))
	assert.False(t, CheckPassword(hash, "wrong password"))
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("alice", "test-secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := ParseToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("alice", "test-secret")
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token", "test-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
