package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestSetPasswordAndCheck(t *testing.T) {
	user := &domain.User{ID: "u1"}

	require.NoError(t, SetPassword(user, "Secr3t!pass", bcrypt.MinCost))
	assert.NotEqual(t, "Secr3t!pass", user.PasswordHash)
	assert.True(t, CheckPassword(user, "Secr3t!pass"))
	assert.False(t, CheckPassword(user, "secr3t!pass"))
}

func TestSetPassword_RejectsWeakPassword(t *testing.T) {
	user := &domain.User{ID: "u1", PasswordHash: "unchanged"}

	err := SetPassword(user, "weak", bcrypt.MinCost)
	require.Error(t, err)
	assert.Equal(t, "Password must be at least 8 characters long.", err.Error())
	assert.Equal(t, "unchanged", user.PasswordHash)
}

func TestCheckPassword_NoCredential(t *testing.T) {
	assert.False(t, CheckPassword(nil, "x"))
	assert.False(t, CheckPassword(&domain.User{}, ""))
}
