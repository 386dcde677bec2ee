package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		ok    bool
	}{
		{"valid", "Cannot print", true},
		{"empty", "", false},
		{"numeric only", "123456", false},
		{"too short", "abcd", false},
		{"minimum length", "abcde", true},
		{"maximum length", strings.Repeat("a", 100), true},
		{"too long", strings.Repeat("a", 101), false},
		{"digits with letters", "12345a", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTitle(tt.title)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var v *RuleViolation
			require.True(t, errors.As(err, &v))
			assert.Equal(t, "title", v.Field)
		})
	}
}

func TestValidateDescription(t *testing.T) {
	assert.NoError(t, ValidateDescription("Printer offline"))
	assert.Error(t, ValidateDescription("short"))
	assert.Error(t, ValidateDescription("1234567890"))
	assert.Error(t, ValidateDescription(strings.Repeat("x", 1001)))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		message  string
	}{
		{"Ab1!", "Password must be at least 8 characters long."},
		{"Abcdefg!", "Password must contain at least one number."},
		{"abcdefg1!", "Password must contain at least one uppercase letter."},
		{"ABCDEFG1!", "Password must contain at least one lowercase letter."},
		{"Abcdefg12", "Password must contain at least one special character."},
		{"Abcdefg1!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.message == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestValidateNameAndEmail(t *testing.T) {
	assert.EqualError(t, ValidateName("   "), "Name cannot be empty.")
	assert.EqualError(t, ValidateName("R2D2"), "Name cannot contain numbers.")
	assert.NoError(t, ValidateName("Ada Lovelace"))

	assert.NoError(t, ValidateEmail("ada@example.com"))
	assert.EqualError(t, ValidateEmail("ada@example"), "Invalid email address.")
	assert.Error(t, ValidateEmail("not an email"))
}

func TestEnumerations(t *testing.T) {
	assert.NoError(t, ValidateRole(RoleSupport))
	assert.Error(t, ValidateRole("Admin"))
	assert.NoError(t, ValidateStatus(TicketStatusInProgress))
	assert.Error(t, ValidateStatus("pending"))
	assert.NoError(t, ValidatePriority(TicketPriorityMedium))
	assert.Error(t, ValidatePriority("urgent"))
}
