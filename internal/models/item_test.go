package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveDepartment(t *testing.T) {
	tests := []struct {
		stage    Stage
		expected Stage
	}{
		{StageSales, StageSales},
		{StageDesign, StageDesign},
		{StagePrepress, StagePrepress},
		{StageProduction, StageProduction},
		{StageOutsource, StagePrepress},
		{StageDispatch, ""},
		{StageCompleted, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			item := NewOrderItem("ord-1", "Flyers", false, false, nil)
			item.CurrentStage = tt.stage

			assert.Equal(t, tt.expected, item.EffectiveDepartment())
		})
	}
}

func TestEffectiveDepartmentIgnoresAssignedOverride(t *testing.T) {
	item := NewOrderItem("ord-1", "Flyers", false, false, nil)
	item.CurrentStage = StageDesign
	item.AssignedDepartment = string(StageProduction)

	assert.Equal(t, StageDesign, item.EffectiveDepartment())
}

func TestNewOrderNumberFormat(t *testing.T) {
	order := NewOrder("ACME Corp", nil, 50001)

	assert.Equal(t, "WC-50001", order.OrderNumber)
	assert.False(t, order.IsCompleted)
}

func TestEffectiveDeliveryDate(t *testing.T) {
	orderDue := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	itemDue := time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)

	// Order-level date takes precedence
	order := NewOrder("ACME Corp", &orderDue, 50001)
	item := NewOrderItem(order.ID, "Flyers", false, false, &itemDue)
	assert.Equal(t, &orderDue, order.EffectiveDeliveryDate(item))

	// Without one, the item-level date applies
	order.DeliveryDate = nil
	assert.Equal(t, &itemDue, order.EffectiveDeliveryDate(item))
}
