package workflow

import (
	"testing"
	"time"

	"github.com/printcraft/order-workflow-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productionItem(sequence ...string) *models.OrderItem {
	item := models.NewOrderItem("ord-1", "Brochures", false, false, nil)
	item.CurrentStage = models.StageProduction
	item.AssignedDepartment = string(models.StageProduction)
	item.Status = models.StatusInProduction
	item.StageSequence = models.StringList(sequence)
	if len(sequence) > 0 {
		item.CurrentSubstage = sequence[0]
		item.SubstageStatus = models.SubstageNotStarted
	}
	return item
}

func TestStartSubstage(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	item := productionItem("printing", "packing")

	require.NoError(t, StartSubstage(item, now))
	assert.Equal(t, models.SubstageInProgress, item.SubstageStatus)
	require.NotNil(t, item.SubstageStartedAt)
	assert.Equal(t, now, *item.SubstageStartedAt)

	// Starting an already running step is rejected
	assert.Error(t, StartSubstage(item, now))
}

func TestStartSubstageWithoutCursor(t *testing.T) {
	item := productionItem()

	assert.Error(t, StartSubstage(item, time.Now()))
}

func TestCompleteSubstageAdvancesCursor(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	item := productionItem("printing", "lamination", "packing")

	// Walk the full sequence; the cursor must only ever move forward
	for i, step := range []string{"printing", "lamination", "packing"} {
		assert.Equal(t, step, item.CurrentSubstage)
		assert.Equal(t, models.SubstageNotStarted, item.SubstageStatus)

		require.NoError(t, StartSubstage(item, now))

		promoted, err := CompleteSubstage(item)
		require.NoError(t, err)

		last := i == 2
		assert.Equal(t, last, promoted)
	}

	assert.Equal(t, models.StageDispatch, item.CurrentStage)
	assert.Empty(t, item.CurrentSubstage)
	assert.Empty(t, item.SubstageStatus)
	assert.Nil(t, item.SubstageStartedAt)
	assert.Empty(t, item.AssignedDepartment)
}

func TestCompleteSubstageRequiresInProgress(t *testing.T) {
	item := productionItem("printing", "packing")

	_, err := CompleteSubstage(item)
	assert.Error(t, err)
}

func TestCompleteSubstageWithEmptySequence(t *testing.T) {
	item := productionItem("printing")
	item.StageSequence = models.StringList{}
	item.SubstageStatus = models.SubstageInProgress

	_, err := CompleteSubstage(item)
	assert.Error(t, err)
}

func TestCompleteSubstageUnknownCursorRestartsAtHead(t *testing.T) {
	// The catalog entry backing the cursor was removed after the
	// sequence was frozen; the cursor restarts at the first step
	// instead of skipping ahead or completing the item
	item := productionItem("printing", "packing")
	item.CurrentSubstage = "embossing"
	item.SubstageStatus = models.SubstageInProgress

	promoted, err := CompleteSubstage(item)
	require.NoError(t, err)

	assert.False(t, promoted)
	assert.Equal(t, "printing", item.CurrentSubstage)
	assert.Equal(t, models.SubstageNotStarted, item.SubstageStatus)
	assert.Equal(t, models.StageProduction, item.CurrentStage)
}
