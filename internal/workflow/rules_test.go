package workflow

import (
	"testing"

	"github.com/printcraft/order-workflow-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func testItem(stage models.Stage, status models.Status) *models.OrderItem {
	item := models.NewOrderItem("ord-1", "Wedding Invitations", true, false, nil)
	item.CurrentStage = stage
	item.AssignedDepartment = string(stage)
	item.Status = status
	return item
}

func actionIDs(actions []Action) []ActionID {
	ids := make([]ActionID, 0, len(actions))
	for _, a := range actions {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestAvailableActions(t *testing.T) {
	tests := []struct {
		name     string
		item     func() *models.OrderItem
		role     Role
		expected []ActionID
	}{
		{
			name: "new order needing design offers assign_design",
			item: func() *models.OrderItem {
				return testItem(models.StageSales, models.StatusNewOrder)
			},
			role:     RoleSales,
			expected: []ActionID{ActionAssignDesign},
		},
		{
			name: "new order without design skips design entirely",
			item: func() *models.OrderItem {
				i := testItem(models.StageSales, models.StatusNewOrder)
				i.NeedDesign = false
				return i
			},
			role:     RoleSales,
			expected: []ActionID{ActionMarkDesignNotRequired},
		},
		{
			name: "pending approval offers the customer decision pair",
			item: func() *models.OrderItem {
				return testItem(models.StageSales, models.StatusPendingApproval)
			},
			role:     RoleSales,
			expected: []ActionID{ActionApprove, ActionRequestRevision},
		},
		{
			name: "design stage offers send_for_approval before a rejection",
			item: func() *models.OrderItem {
				return testItem(models.StageDesign, models.StatusApproved)
			},
			role: RoleDesign,
			expected: []ActionID{
				ActionUploadDesign, ActionUpdateBrief, ActionSendForApproval,
				ActionAssignPrepress, ActionSendToProduction,
			},
		},
		{
			name: "rejected design gets submit_revision instead",
			item: func() *models.OrderItem {
				return testItem(models.StageDesign, models.StatusRejected)
			},
			role: RoleDesign,
			expected: []ActionID{
				ActionUploadDesign, ActionUpdateBrief, ActionSubmitRevision,
				ActionAssignPrepress, ActionSendToProduction,
			},
		},
		{
			name: "design-only item can be completed from design",
			item: func() *models.OrderItem {
				i := testItem(models.StageDesign, models.StatusApproved)
				i.DesignOnly = true
				return i
			},
			role: RoleDesign,
			expected: []ActionID{
				ActionUploadDesign, ActionUpdateBrief, ActionSendForApproval,
				ActionAssignPrepress, ActionSendToProduction, ActionMarkComplete,
			},
		},
		{
			name: "prepress full set",
			item: func() *models.OrderItem {
				return testItem(models.StagePrepress, models.StatusApproved)
			},
			role: RolePrepress,
			expected: []ActionID{
				ActionUpdateBrief, ActionSendForRevision,
				ActionSendToProduction, ActionAssignOutsource,
			},
		},
		{
			name: "production substage not started offers start",
			item: func() *models.OrderItem {
				i := testItem(models.StageProduction, models.StatusInProduction)
				i.StageSequence = models.StringList{"printing", "packing"}
				i.CurrentSubstage = "printing"
				i.SubstageStatus = models.SubstageNotStarted
				return i
			},
			role:     RoleProduction,
			expected: []ActionID{ActionStartSubstage},
		},
		{
			name: "production substage in progress offers complete",
			item: func() *models.OrderItem {
				i := testItem(models.StageProduction, models.StatusInProduction)
				i.StageSequence = models.StringList{"printing", "packing"}
				i.CurrentSubstage = "printing"
				i.SubstageStatus = models.SubstageInProgress
				return i
			},
			role:     RoleProduction,
			expected: []ActionID{ActionCompleteSubstage},
		},
		{
			name: "production without a substage cursor can be marked done",
			item: func() *models.OrderItem {
				return testItem(models.StageProduction, models.StatusInProduction)
			},
			role:     RoleProduction,
			expected: []ActionID{ActionMarkCompleted},
		},
		{
			name: "outsourced items stay the prepress department's job",
			item: func() *models.OrderItem {
				i := testItem(models.StageOutsource, models.StatusOutsourced)
				return i
			},
			role:     RolePrepress,
			expected: []ActionID{ActionMarkCompleted},
		},
		{
			name: "dispatch takes no department actions",
			item: func() *models.OrderItem {
				return testItem(models.StageDispatch, models.StatusInProduction)
			},
			role:     RoleProduction,
			expected: nil,
		},
		{
			name: "completed takes no department actions",
			item: func() *models.OrderItem {
				return testItem(models.StageCompleted, models.StatusCompleted)
			},
			role:     RoleAdmin,
			expected: nil,
		},
		{
			name: "role outside the effective department sees nothing",
			item: func() *models.OrderItem {
				return testItem(models.StageDesign, models.StatusApproved)
			},
			role:     RoleSales,
			expected: nil,
		},
		{
			name: "current stage beats a stale assigned department",
			item: func() *models.OrderItem {
				i := testItem(models.StageDesign, models.StatusApproved)
				i.AssignedDepartment = string(models.StagePrepress)
				return i
			},
			role:     RolePrepress,
			expected: nil,
		},
		{
			name: "admin sees the department set",
			item: func() *models.OrderItem {
				return testItem(models.StagePrepress, models.StatusApproved)
			},
			role: RoleAdmin,
			expected: []ActionID{
				ActionUpdateBrief, ActionSendForRevision,
				ActionSendToProduction, ActionAssignOutsource,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions := AvailableActions(tt.item(), tt.role)

			if tt.expected == nil {
				assert.Empty(t, actions)
				return
			}

			assert.Equal(t, tt.expected, actionIDs(actions))
		})
	}
}

func TestIsAvailable(t *testing.T) {
	item := testItem(models.StageSales, models.StatusNewOrder)

	assert.True(t, IsAvailable(item, RoleSales, ActionAssignDesign))
	assert.True(t, IsAvailable(item, RoleAdmin, ActionAssignDesign))
	assert.False(t, IsAvailable(item, RoleSales, ActionSendToProduction))
	assert.False(t, IsAvailable(item, RoleDesign, ActionAssignDesign))
}
