package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	user := &domain.User{ID: "4b0c3c2e-1111-4222-8333-944455556666", Role: domain.RoleSupport}

	token, expiresAt, err := tm.GenerateToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, domain.RoleSupport, claims.Role)
	assert.Equal(t, "helpdesk", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	user := &domain.User{ID: "u1", Role: domain.RoleAdmin}
	token, _, err := tm.GenerateToken(user)
	require.NoError(t, err)

	_, err = NewTokenManager("other", 1).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	tm.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = tm.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = tm.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
