package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "a@b.c", "secret")
	require.NoError(t, err)

	userID, err := Authenticate("Bearer "+token, "secret")
	require.NoError(t, err)
	require.Equal(t, int32(42), userID)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	token, err := GenerateAccessToken(42, "a@b.c", "secret")
	require.NoError(t, err)

	_, err = Authenticate("Bearer "+token, "other-secret")
	require.Error(t, err)

	_, err = Authenticate(token, "secret") // no Bearer prefix
	require.Error(t, err)

	_, err = Authenticate("Bearer ", "secret")
	require.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	require.True(t, VerifyPassword(hash, "hunter2"))
	require.False(t, VerifyPassword(hash, "hunter3"))
}
