package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminTokenService_RoundTrip(t *testing.T) {
	svc := NewAdminTokenService("test-secret-at-least-32-characters")

	token, err := svc.Sign("admin@example.de")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.de", claims.Email)
	assert.Equal(t, "admin", claims.Role)
}

func TestAdminTokenService_RejectsWrongSecret(t *testing.T) {
	token, err := NewAdminTokenService("secret-one").Sign("admin@example.de")
	require.NoError(t, err)

	_, err = NewAdminTokenService("secret-two").Verify(token)
	assert.Error(t, err)
}

func TestAdminTokenService_RejectsGarbage(t *testing.T) {
	_, err := NewAdminTokenService("secret").Verify("not-a-token")
	assert.Error(t, err)
}
