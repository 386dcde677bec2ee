package domain

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field length limits for tickets.
const (
	TitleMinLength       = 5
	TitleMaxLength       = 100
	DescriptionMinLength = 10
	DescriptionMaxLength = 1000
	PasswordMinLength    = 8
)

// PasswordSpecialChars is the set of characters that satisfy the special
// character password rule.
const PasswordSpecialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?/"

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// RuleViolation describes a failed input rule with a message fit for end users.
type RuleViolation struct {
	Field   string
	Message string
}

func (v *RuleViolation) Error() string {
	return v.Message
}

func violation(field, message string) *RuleViolation {
	return &RuleViolation{Field: field, Message: message}
}

// ValidateTitle checks the ticket title rules.
func ValidateTitle(title string) error {
	if !textWithin(title, TitleMinLength, TitleMaxLength) {
		return violation("title", "Title must contain non-numeric characters, be at least 5 characters long, and not exceed 100 characters.")
	}
	return nil
}

// ValidateDescription checks the ticket description rules.
func ValidateDescription(description string) error {
	if !textWithin(description, DescriptionMinLength, DescriptionMaxLength) {
		return violation("description", "Description must contain non-numeric characters, be at least 10 characters long, and not exceed 1000 characters.")
	}
	return nil
}

// ValidatePriority checks that p is a known priority.
func ValidatePriority(p TicketPriority) error {
	if !p.Valid() {
		return violation("priority", "Invalid priority value. Choose either 'low', 'medium', or 'high'.")
	}
	return nil
}

// ValidateStatus checks that s is a known status.
func ValidateStatus(s TicketStatus) error {
	if !s.Valid() {
		return violation("status", "Invalid status value. Choose either 'open', 'in-progress', or 'closed'.")
	}
	return nil
}

// ValidateName checks a display name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return violation("name", "Name cannot be empty.")
	}
	if strings.IndexFunc(name, unicode.IsDigit) >= 0 {
		return violation("name", "Name cannot contain numbers.")
	}
	return nil
}

// ValidateEmail checks the address format.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return violation("email", "Invalid email address.")
	}
	return nil
}

// ValidateRole checks that r is a known role.
func ValidateRole(r Role) error {
	if !r.Valid() {
		return violation("role", "Invalid role selected.")
	}
	return nil
}

// ValidatePassword enforces password complexity. Rules are checked in a fixed
// order so the first failing rule is reported.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < PasswordMinLength {
		return violation("password", "Password must be at least 8 characters long.")
	}
	if strings.IndexFunc(password, unicode.IsDigit) < 0 {
		return violation("password", "Password must contain at least one number.")
	}
	if strings.IndexFunc(password, unicode.IsUpper) < 0 {
		return violation("password", "Password must contain at least one uppercase letter.")
	}
	if strings.IndexFunc(password, unicode.IsLower) < 0 {
		return violation("password", "Password must contain at least one lowercase letter.")
	}
	if !strings.ContainsAny(password, PasswordSpecialChars) {
		return violation("password", "Password must contain at least one special character.")
	}
	return nil
}

// textWithin reports whether s is within [min, max] runes and is not made of
// digits only.
func textWithin(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	if n < min || n > max {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0
}
