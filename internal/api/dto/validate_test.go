package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestValidateStruct_CreateTicket(t *testing.T) {
	ok := CreateTicketRequest{Title: "Printer", Description: "Out of toner", Priority: "low"}
	assert.NoError(t, ValidateStruct(ok))

	bad := CreateTicketRequest{Title: "Printer", Priority: "urgent", Status: "pending"}
	err := ValidateStruct(bad)
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, de.Code)
	assert.Equal(t, "description is required", de.Details["description"])
	assert.Equal(t, "priority must be one of [low medium high]", de.Details["priority"])
	assert.Contains(t, de.Details, "status")
}

func TestValidateStruct_UpdateTicketPointers(t *testing.T) {
	assert.NoError(t, ValidateStruct(UpdateTicketRequest{}))

	closed := "closed"
	assert.NoError(t, ValidateStruct(UpdateTicketRequest{Status: &closed}))

	pending := "pending"
	err := ValidateStruct(UpdateTicketRequest{Status: &pending})
	require.Error(t, err)
	assert.Contains(t, apperrors.ToDomainError(err).Details, "status")
}

func TestValidateStruct_Token(t *testing.T) {
	err := ValidateStruct(TokenRequest{Email: "not-an-email", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, "email must be a valid email address", apperrors.ToDomainError(err).Message)
}
