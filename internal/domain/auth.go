package domain

// Role determines what a user may see and change.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleSupport Role = "support"
	RoleRegular Role = "regular"
)

// Roles lists every valid role in display order.
var Roles = []Role{RoleAdmin, RoleSupport, RoleRegular}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupport, RoleRegular:
		return true
	}
	return false
}

// IsStaff reports whether the role belongs to helpdesk staff.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSupport
}
