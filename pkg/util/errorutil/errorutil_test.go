package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	wrapped := fmt.Errorf("create ticket: %w", NewConflict("email taken", nil))
	de := ToDomainError(wrapped)
	assert.Equal(t, CodeConflict, de.Code)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)

	internal := ToDomainError(errors.New("boom"))
	assert.Equal(t, CodeInternal, internal.Code)
	assert.Equal(t, http.StatusInternalServerError, internal.HTTPStatus)
	assert.EqualError(t, internal, "internal server error: boom")
}

func TestCodePredicates(t *testing.T) {
	assert.True(t, IsForbidden(NewForbidden("nope")))
	assert.True(t, IsNotFound(NewNotFound("ticket", nil)))
	assert.True(t, IsUserFacing(NewValidationError("bad", nil)))
	assert.True(t, IsUserFacing(NewAuthenticationError("bad login")))
	assert.False(t, IsUserFacing(NewForbidden("nope")))
	assert.False(t, IsUserFacing(errors.New("plain")))
}
