package domain

import "time"

// User is an account that can raise tickets and, depending on role, work on them.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	ProfileImage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsStaff reports whether the user is an admin or support agent.
func (u *User) IsStaff() bool {
	return u != nil && u.Role.IsStaff()
}
