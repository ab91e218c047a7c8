package auth_test

import (
	"testing"

	"github.com/dferrin/lockbox/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, auth.ComparePassword(hash, "correct horse battery staple"))
	assert.Error(t, auth.ComparePassword(hash, "wrong password"))
}

func TestHashPassword_EmptyRejected(t *testing.T) {
	_, err := auth.HashPassword("")
	assert.Error(t, err)
}

func TestGenerateToken_UniqueAndLong(t *testing.T) {
	first, err := auth.GenerateToken()
	require.NoError(t, err)
	second, err := auth.GenerateToken()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	// 32 bytes base64url-encoded without padding is 43 characters
	assert.Len(t, first, 43)
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, auth.ValidatePassword("short"))
	assert.NoError(t, auth.ValidatePassword("long enough password"))
}
