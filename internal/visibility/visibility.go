// Package visibility mirrors the row-level access rules as an in-process
// filter so list endpoints return exactly what a dashboard user may see.
package visibility

import (
	"strings"

	"github.com/pressroomhq/printdesk-backend/pkg/db/models"
	"github.com/pressroomhq/printdesk-backend/pkg/enums"
)

// Viewer is the profile slice the filter needs.
type Viewer struct {
	Role               enums.Role
	Department         string
	ProductionSubstage string
	IsAdmin            bool
}

// IsVisible reports whether the viewer may see the item.
//
// Admin and sales see everything. Everyone else matches the item's effective
// department case-insensitively against their own department (role is the
// fallback when the profile has no department). Individual user assignment
// never narrows department visibility; it only feeds "assigned to me"
// sub-filters. Production workers additionally only see items sitting at
// their own station.
func IsVisible(item *models.OrderItem, viewer Viewer) bool {
	if item == nil {
		return false
	}
	if viewer.IsAdmin || viewer.Role == enums.RoleAdmin {
		return true
	}
	if viewer.Role == enums.RoleSales {
		return true
	}

	viewerDept := viewerDepartment(viewer)
	if viewerDept == "" {
		// Neither a role nor a profile department: fail closed.
		return false
	}

	if !strings.EqualFold(effectiveDepartment(item), viewerDept) {
		return false
	}

	if strings.EqualFold(viewerDept, enums.DepartmentProduction.String()) {
		return isAtViewerStation(item, viewer)
	}

	return true
}

// FilterItems returns the subset of items the viewer may see, preserving order.
func FilterItems(items []models.OrderItem, viewer Viewer) []models.OrderItem {
	visible := make([]models.OrderItem, 0, len(items))
	for i := range items {
		if IsVisible(&items[i], viewer) {
			visible = append(visible, items[i])
		}
	}
	return visible
}

// effectiveDepartment is assigned_department when set, otherwise the current
// stage name.
func effectiveDepartment(item *models.OrderItem) string {
	if item.AssignedDepartment != nil && strings.TrimSpace(*item.AssignedDepartment) != "" {
		return strings.TrimSpace(*item.AssignedDepartment)
	}
	return item.CurrentStage.String()
}

func viewerDepartment(viewer Viewer) string {
	if dept := strings.TrimSpace(viewer.Department); dept != "" {
		return dept
	}
	return viewer.Role.String()
}

func isAtViewerStation(item *models.OrderItem, viewer Viewer) bool {
	if item.CurrentStage != enums.StageProduction {
		return false
	}
	station := strings.TrimSpace(viewer.ProductionSubstage)
	if station == "" || item.CurrentSubstage == nil {
		return false
	}
	return strings.EqualFold(*item.CurrentSubstage, station)
}
