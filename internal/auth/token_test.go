package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Generate(7, "jmaina", "admin")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	require.Equal(t, int64(7), claims.UserID)
	require.Equal(t, "jmaina", claims.Username)
	require.Equal(t, "admin", claims.Role)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenService("secret-a", time.Hour).Generate(1, "u", "user")
	require.NoError(t, err)

	_, err = NewTokenService("secret-b", time.Hour).Validate(token)
	require.Error(t, err)
}

func TestTokenRejectsExpired(t *testing.T) {
	svc := NewTokenService("test-secret", time.Nanosecond)
	token, err := svc.Generate(1, "u", "user")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = svc.Validate(token)
	require.Error(t, err)
}

func TestGenerateRequiresUserID(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	_, err := svc.Generate(0, "u", "user")
	require.Error(t, err)
}

func TestHasherRoundTrip(t *testing.T) {
	h := NewBcryptHasher(4)

	hash, err := h.Hash("123Give")
	require.NoError(t, err)
	require.NoError(t, h.Compare(hash, "123Give"))
	require.Error(t, h.Compare(hash, "wrong"))

	_, err = h.Hash("")
	require.Error(t, err)
}
