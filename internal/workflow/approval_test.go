package workflow

import (
	"testing"

	"github.com/printcraft/order-workflow-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnterApprovalSnapshotsOrigin(t *testing.T) {
	item := testItem(models.StageDesign, models.StatusNewOrder)
	item.AssignedTo = "usr-designer"

	require.NoError(t, EnterApproval(item, "usr-sales", "Dana"))

	assert.Equal(t, models.StageSales, item.CurrentStage)
	assert.Equal(t, string(models.StageSales), item.AssignedDepartment)
	assert.Equal(t, models.StatusPendingApproval, item.Status)
	assert.Equal(t, string(models.StageDesign), item.PreviousDepartment)
	assert.Equal(t, "usr-designer", item.PreviousAssignedTo)
	assert.Equal(t, "usr-sales", item.AssignedTo)
	assert.Equal(t, "Dana", item.AssignedToName)
}

func TestEnterApprovalAlreadyPending(t *testing.T) {
	item := testItem(models.StageSales, models.StatusPendingApproval)

	err := EnterApproval(item, "usr-sales", "Dana")
	assert.Error(t, err)
}

func TestApproveItemRoutesByNeedDesign(t *testing.T) {
	tests := []struct {
		name       string
		needDesign bool
		expected   models.Stage
	}{
		{name: "needs design goes to design", needDesign: true, expected: models.StageDesign},
		{name: "no design goes straight to prepress", needDesign: false, expected: models.StagePrepress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := testItem(models.StageSales, models.StatusPendingApproval)
			item.NeedDesign = tt.needDesign
			item.PreviousAssignedTo = "usr-worker"

			ApproveItem(item)

			assert.Equal(t, tt.expected, item.CurrentStage)
			assert.Equal(t, string(tt.expected), item.AssignedDepartment)
			assert.Equal(t, models.StatusApproved, item.Status)
			assert.Equal(t, "usr-worker", item.AssignedTo)
		})
	}
}

func TestRejectItemReturnsToOrigin(t *testing.T) {
	item := testItem(models.StageSales, models.StatusPendingApproval)
	item.PreviousDepartment = string(models.StagePrepress)
	item.PreviousAssignedTo = "usr-prepress"

	RejectItem(item)

	assert.Equal(t, models.StagePrepress, item.CurrentStage)
	assert.Equal(t, models.StatusRejected, item.Status)
	assert.Equal(t, "usr-prepress", item.AssignedTo)
}

func TestRejectItemFallsBackToDesign(t *testing.T) {
	item := testItem(models.StageSales, models.StatusPendingApproval)
	item.PreviousDepartment = ""

	RejectItem(item)

	assert.Equal(t, models.StageDesign, item.CurrentStage)
	assert.Equal(t, models.StatusRejected, item.Status)
}
