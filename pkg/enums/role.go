package enums

import (
	"fmt"
	"strings"
)

// Role is the workflow role attached to a user profile. Department workers
// carry the role matching their department; admin is cross-cutting.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSales      Role = "sales"
	RoleDesign     Role = "design"
	RolePrepress   Role = "prepress"
	RoleProduction Role = "production"
	RoleOutsource  Role = "outsource"
	RoleDispatch   Role = "dispatch"
)

var validRoles = []Role{
	RoleAdmin,
	RoleSales,
	RoleDesign,
	RolePrepress,
	RoleProduction,
	RoleOutsource,
	RoleDispatch,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role, ignoring case.
func ParseRole(value string) (Role, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRoles {
		if string(candidate) == trimmed {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
