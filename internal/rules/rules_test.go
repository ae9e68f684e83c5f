package rules

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressroomhq/printdesk-backend/pkg/db/models"
	"github.com/pressroomhq/printdesk-backend/pkg/enums"
	"github.com/pressroomhq/printdesk-backend/pkg/errors"
)

func TestOutsourceHappyPath(t *testing.T) {
	path := []enums.OutsourceStage{
		enums.OutsourceStageOutsourced,
		enums.OutsourceStageVendorInProgress,
		enums.OutsourceStageVendorDispatched,
		enums.OutsourceStageReceivedFromVendor,
		enums.OutsourceStageQualityCheck,
		enums.OutsourceStageDecisionPending,
	}
	for i := 0; i < len(path)-1; i++ {
		assert.NoError(t, ValidateOutsourceTransition(path[i], path[i+1]))
	}
}

func TestOutsourceBackEdges(t *testing.T) {
	assert.NoError(t, ValidateOutsourceTransition(enums.OutsourceStageQualityCheck, enums.OutsourceStageVendorInProgress))
	assert.NoError(t, ValidateOutsourceTransition(enums.OutsourceStageVendorInProgress, enums.OutsourceStageOutsourced))
}

func TestOutsourceRejectsSkips(t *testing.T) {
	err := ValidateOutsourceTransition(enums.OutsourceStageOutsourced, enums.OutsourceStageVendorDispatched)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeStateConflict))

	err = ValidateOutsourceTransition(enums.OutsourceStageDecisionPending, enums.OutsourceStageQualityCheck)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeStateConflict))
}

func TestOutsourceRejectsUnknownStage(t *testing.T) {
	err := ValidateOutsourceTransition("shipped", enums.OutsourceStageQualityCheck)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidation))
}

func TestAssignmentMatrix(t *testing.T) {
	tests := []struct {
		role    enums.Role
		target  enums.Department
		allowed bool
	}{
		{enums.RoleSales, enums.DepartmentDesign, true},
		{enums.RoleSales, enums.DepartmentPrepress, true},
		{enums.RoleSales, enums.DepartmentOutsource, true},
		{enums.RoleSales, enums.DepartmentProduction, false},
		{enums.RoleDesign, enums.DepartmentPrepress, true},
		{enums.RoleDesign, enums.DepartmentProduction, true},
		{enums.RoleDesign, enums.DepartmentOutsource, false},
		{enums.RolePrepress, enums.DepartmentProduction, true},
		{enums.RolePrepress, enums.DepartmentDesign, true},
		{enums.RolePrepress, enums.DepartmentOutsource, true},
		{enums.RoleProduction, enums.DepartmentDispatch, false},
		{enums.RoleProduction, enums.DepartmentDesign, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.allowed, CanAssign(tc.role, false, tc.target),
			"%s -> %s", tc.role, tc.target)
	}
}

func TestAdminAssignsAnywhere(t *testing.T) {
	for _, target := range []enums.Department{
		enums.DepartmentDesign,
		enums.DepartmentPrepress,
		enums.DepartmentProduction,
		enums.DepartmentOutsource,
		enums.DepartmentDispatch,
	} {
		assert.True(t, CanAssign(enums.RoleAdmin, false, target))
		assert.True(t, CanAssign(enums.RoleProduction, true, target))
	}
}

func TestValidateAssignmentReturnsForbidden(t *testing.T) {
	err := ValidateAssignment(enums.RoleProduction, false, enums.DepartmentDesign)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeForbidden))
}

func TestSequenceForPrefersCustomSequence(t *testing.T) {
	item := &models.OrderItem{SubstageSequence: pq.StringArray{"printing", "packing"}}
	assert.Equal(t, []string{"printing", "packing"}, SequenceFor(item))

	stock := SequenceFor(&models.OrderItem{})
	assert.Equal(t, "foiling", stock[0])
	assert.Equal(t, "packing", stock[len(stock)-1])
	assert.Len(t, stock, 7)
}

func TestNextSubstageAdvancesExactlyOne(t *testing.T) {
	sequence := []string{"foiling", "printing", "packing"}

	next, final, err := NextSubstage(sequence, "foiling")
	require.NoError(t, err)
	assert.False(t, final)
	assert.Equal(t, "printing", next)

	next, final, err = NextSubstage(sequence, "packing")
	require.NoError(t, err)
	assert.True(t, final)
	assert.Empty(t, next)
}

func TestNextSubstageRejectsUnknownStation(t *testing.T) {
	_, _, err := NextSubstage([]string{"foiling", "printing"}, "embossing")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeStateConflict))
}
