package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pressroomhq/printdesk-backend/pkg/db/models"
	"github.com/pressroomhq/printdesk-backend/pkg/enums"
)

func strptr(s string) *string { return &s }

func designItem() *models.OrderItem {
	return &models.OrderItem{
		CurrentStage:       enums.StageDesign,
		AssignedDepartment: strptr("design"),
	}
}

func TestAdminAndSalesAlwaysSee(t *testing.T) {
	item := designItem()

	assert.True(t, IsVisible(item, Viewer{Role: enums.RoleProduction, IsAdmin: true}))
	assert.True(t, IsVisible(item, Viewer{Role: enums.RoleAdmin}))
	assert.True(t, IsVisible(item, Viewer{Role: enums.RoleSales, Department: "sales"}))
}

func TestDepartmentMatchIsCaseInsensitive(t *testing.T) {
	item := &models.OrderItem{
		CurrentStage:       enums.StageDesign,
		AssignedDepartment: strptr("Design"),
	}

	assert.True(t, IsVisible(item, Viewer{Role: enums.RoleDesign, Department: "design"}))
	assert.False(t, IsVisible(item, Viewer{Role: enums.RolePrepress, Department: "prepress"}))
}

func TestCurrentStageIsFallbackOnly(t *testing.T) {
	item := &models.OrderItem{CurrentStage: enums.StagePrepress}
	assert.True(t, IsVisible(item, Viewer{Role: enums.RolePrepress, Department: "prepress"}))

	// Once assigned, the stage no longer matters for visibility.
	item.AssignedDepartment = strptr("design")
	assert.False(t, IsVisible(item, Viewer{Role: enums.RolePrepress, Department: "prepress"}))
	assert.True(t, IsVisible(item, Viewer{Role: enums.RoleDesign, Department: "design"}))
}

func TestUserAssignmentNeverNarrowsVisibility(t *testing.T) {
	item := designItem()
	other := models.User{Name: "someone else"}
	item.AssignedUserID = &other.ID

	assert.True(t, IsVisible(item, Viewer{Role: enums.RoleDesign, Department: "design"}))
}

func TestProductionWorkerSeesOnlyOwnStation(t *testing.T) {
	item := &models.OrderItem{
		CurrentStage:       enums.StageProduction,
		CurrentSubstage:    strptr("printing"),
		AssignedDepartment: strptr("production"),
	}

	printer := Viewer{Role: enums.RoleProduction, Department: "production", ProductionSubstage: "printing"}
	cutter := Viewer{Role: enums.RoleProduction, Department: "production", ProductionSubstage: "cutting"}
	unconfigured := Viewer{Role: enums.RoleProduction, Department: "production"}

	assert.True(t, IsVisible(item, printer))
	assert.False(t, IsVisible(item, cutter))
	assert.False(t, IsVisible(item, unconfigured))
}

func TestProductionConstraintRequiresProductionStage(t *testing.T) {
	// Item assigned to production but still sitting in prepress.
	item := &models.OrderItem{
		CurrentStage:       enums.StagePrepress,
		AssignedDepartment: strptr("production"),
	}

	viewer := Viewer{Role: enums.RoleProduction, Department: "production", ProductionSubstage: "printing"}
	assert.False(t, IsVisible(item, viewer))
}

func TestFailClosedWithoutRoleOrDepartment(t *testing.T) {
	assert.False(t, IsVisible(designItem(), Viewer{}))
}

func TestFilterItemsPreservesOrder(t *testing.T) {
	items := []models.OrderItem{
		{CurrentStage: enums.StageDesign, AssignedDepartment: strptr("design"), ProductName: "cards"},
		{CurrentStage: enums.StagePrepress, AssignedDepartment: strptr("prepress"), ProductName: "boxes"},
		{CurrentStage: enums.StageDesign, ProductName: "flyers"},
	}

	visible := FilterItems(items, Viewer{Role: enums.RoleDesign, Department: "design"})

	assert.Len(t, visible, 2)
	assert.Equal(t, "cards", visible[0].ProductName)
	assert.Equal(t, "flyers", visible[1].ProductName)
}
