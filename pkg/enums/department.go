package enums

import (
	"fmt"
	"strings"
)

// Department identifies a shop department an item can be routed to.
type Department string

const (
	DepartmentSales      Department = "sales"
	DepartmentDesign     Department = "design"
	DepartmentPrepress   Department = "prepress"
	DepartmentProduction Department = "production"
	DepartmentOutsource  Department = "outsource"
	DepartmentDispatch   Department = "dispatch"
)

var validDepartments = []Department{
	DepartmentSales,
	DepartmentDesign,
	DepartmentPrepress,
	DepartmentProduction,
	DepartmentOutsource,
	DepartmentDispatch,
}

// String implements fmt.Stringer.
func (d Department) String() string {
	return string(d)
}

// IsValid reports whether the value is a known Department.
func (d Department) IsValid() bool {
	for _, candidate := range validDepartments {
		if candidate == d {
			return true
		}
	}
	return false
}

// Equals compares two department names case-insensitively.
func (d Department) Equals(other string) bool {
	return strings.EqualFold(string(d), strings.TrimSpace(other))
}

// ParseDepartment converts raw input into a Department, ignoring case.
func ParseDepartment(value string) (Department, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validDepartments {
		if string(candidate) == trimmed {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid department %q", value)
}

// Stage returns the item stage that corresponds to this department.
func (d Department) Stage() Stage {
	return Stage(d)
}
