package rules

import (
	"fmt"

	"github.com/pressroomhq/printdesk-backend/pkg/enums"
	"github.com/pressroomhq/printdesk-backend/pkg/errors"
)

// assignmentTargets captures which departments a non-admin role may route an
// item to. Production changes substages and dispatches but never reroutes.
var assignmentTargets = map[enums.Role][]enums.Department{
	enums.RoleSales:      {enums.DepartmentDesign, enums.DepartmentPrepress, enums.DepartmentOutsource},
	enums.RoleDesign:     {enums.DepartmentPrepress, enums.DepartmentProduction},
	enums.RolePrepress:   {enums.DepartmentProduction, enums.DepartmentDesign, enums.DepartmentOutsource},
	enums.RoleProduction: {},
}

// CanAssign reports whether the actor may route an item to the target
// department. Admins may route anywhere.
func CanAssign(role enums.Role, isAdmin bool, target enums.Department) bool {
	if isAdmin || role == enums.RoleAdmin {
		return true
	}
	for _, candidate := range assignmentTargets[role] {
		if candidate == target {
			return true
		}
	}
	return false
}

// ValidateAssignment rejects disallowed routings with a typed error.
func ValidateAssignment(role enums.Role, isAdmin bool, target enums.Department) error {
	if !target.IsValid() {
		return errors.New(errors.CodeValidation, fmt.Sprintf("unknown department %q", target))
	}
	if !CanAssign(role, isAdmin, target) {
		return errors.New(errors.CodeForbidden,
			fmt.Sprintf("role %q may not assign items to %q", role, target))
	}
	return nil
}
