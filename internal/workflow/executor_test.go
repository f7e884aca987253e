package workflow

import (
	"testing"
	"time"

	"github.com/printcraft/order-workflow-api/internal/models"
	apperrors "github.com/printcraft/order-workflow-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func applyOK(t *testing.T, item models.OrderItem, actionID ActionID, actor Actor, p Payload) *Result {
	t.Helper()

	result, err := Apply(item, actionID, actor, "", p, nil, testNow)
	require.NoError(t, err)
	require.NotNil(t, result.Entry)
	return result
}

// TestFullItemLifecycle walks an item through the happy path: sales
// assigns design, design requests approval, the customer approves, the
// item runs a three-step production sequence and lands in dispatch.
func TestFullItemLifecycle(t *testing.T) {
	salesRep := Actor{ID: "usr-sales", Name: "Dana", Role: RoleSales}
	designer := Actor{ID: "usr-design", Name: "Miro", Role: RoleDesign}
	operator := Actor{ID: "usr-prod", Name: "Kai", Role: RoleProduction}

	item := *models.NewOrderItem("ord-1", "Wedding Invitations", true, false, nil)

	// Sales hands the item to a designer
	result := applyOK(t, item, ActionAssignDesign, salesRep, Payload{
		AssignTo:     designer.ID,
		AssignToName: designer.Name,
	})
	item = result.Item

	assert.Equal(t, models.StageDesign, item.CurrentStage)
	assert.Equal(t, designer.ID, item.AssignedTo)
	require.Len(t, result.SideEffects, 1)
	assert.Equal(t, SideEffectNotify, result.SideEffects[0].Kind)
	assert.Equal(t, designer.ID, result.SideEffects[0].UserID)

	// Designer sends the work to the customer via sales
	result = applyOK(t, item, ActionSendForApproval, designer, Payload{
		AssignTo:     salesRep.ID,
		AssignToName: salesRep.Name,
	})
	item = result.Item

	assert.Equal(t, models.StageSales, item.CurrentStage)
	assert.Equal(t, models.StatusPendingApproval, item.Status)
	assert.Equal(t, string(models.StageDesign), item.PreviousDepartment)
	assert.Equal(t, designer.ID, item.PreviousAssignedTo)

	// Customer approves; the item returns to design with its designer
	result = applyOK(t, item, ActionApprove, salesRep, Payload{})
	item = result.Item

	assert.Equal(t, models.StageDesign, item.CurrentStage)
	assert.Equal(t, models.StatusApproved, item.Status)
	assert.Equal(t, designer.ID, item.AssignedTo)

	// Design pushes the item into a three-step production run with a
	// material reservation
	result = applyOK(t, item, ActionSendToProduction, designer, Payload{
		Sequence:    []string{"printing", "foiling", "packing"},
		AssignTo:    operator.ID,
		Material:    "pearl card 300gsm",
		MaterialQty: 500,
	})
	item = result.Item

	assert.Equal(t, models.StageProduction, item.CurrentStage)
	assert.Equal(t, models.StatusInProduction, item.Status)
	assert.Equal(t, models.StringList{"printing", "foiling", "packing"}, item.StageSequence)
	assert.Equal(t, "printing", item.CurrentSubstage)
	assert.Equal(t, models.SubstageNotStarted, item.SubstageStatus)

	require.Len(t, result.SideEffects, 2)
	assert.Equal(t, SideEffectNotify, result.SideEffects[0].Kind)
	assert.Equal(t, SideEffectReserveMaterial, result.SideEffects[1].Kind)
	assert.Equal(t, "pearl card 300gsm", result.SideEffects[1].Material)
	assert.Equal(t, 500, result.SideEffects[1].Quantity)

	// The operator works each step start-to-finish
	for range item.StageSequence {
		result = applyOK(t, item, ActionStartSubstage, operator, Payload{})
		item = result.Item

		result = applyOK(t, item, ActionCompleteSubstage, operator, Payload{})
		item = result.Item
	}

	assert.Equal(t, models.StageDispatch, item.CurrentStage)
	assert.Empty(t, item.CurrentSubstage)
	assert.Empty(t, item.AssignedDepartment)

	// Dispatch is terminal for department users
	assert.Empty(t, AvailableActions(&item, RoleProduction))
	assert.Empty(t, AvailableActions(&item, RoleAdmin))
}

func TestApplyRejectsUnavailableAction(t *testing.T) {
	item := *models.NewOrderItem("ord-1", "Posters", true, false, nil)
	actor := Actor{ID: "usr-1", Name: "Dana", Role: RoleSales}

	_, err := Apply(item, ActionSendToProduction, actor, "", Payload{}, nil, testNow)
	require.Error(t, err)

	var transitionErr *apperrors.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, string(ActionSendToProduction), transitionErr.Action)
	assert.Equal(t, string(RoleSales), transitionErr.Role)
}

func TestApplyRejectsMissingReferences(t *testing.T) {
	actor := Actor{ID: "usr-1", Role: RoleSales}

	item := *models.NewOrderItem("ord-1", "Posters", true, false, nil)
	item.ID = ""
	_, err := Apply(item, ActionAssignDesign, actor, "", Payload{}, nil, testNow)
	assert.ErrorIs(t, err, apperrors.ErrMissingReference)

	item = *models.NewOrderItem("ord-1", "Posters", true, false, nil)
	item.OrderID = ""
	_, err = Apply(item, ActionAssignDesign, actor, "", Payload{}, nil, testNow)
	assert.ErrorIs(t, err, apperrors.ErrMissingReference)

	item = *models.NewOrderItem("ord-1", "Posters", true, false, nil)
	_, err = Apply(item, ActionAssignDesign, Actor{Role: RoleSales}, "", Payload{}, nil, testNow)
	assert.ErrorIs(t, err, apperrors.ErrMissingReference)
}

func TestApplySendToProductionUsesDefaultSequence(t *testing.T) {
	item := *testItem(models.StagePrepress, models.StatusApproved)
	actor := Actor{ID: "usr-pp", Role: RolePrepress}

	defaults := []string{"printing", "binding"}

	result, err := Apply(item, ActionSendToProduction, actor, "", Payload{}, defaults, testNow)
	require.NoError(t, err)

	assert.Equal(t, models.StringList(defaults), result.Item.StageSequence)
	assert.Equal(t, "printing", result.Item.CurrentSubstage)
}

func TestApplyAssignOutsourceRequiresVendor(t *testing.T) {
	item := *testItem(models.StagePrepress, models.StatusApproved)
	actor := Actor{ID: "usr-pp", Role: RolePrepress}

	_, err := Apply(item, ActionAssignOutsource, actor, "", Payload{}, nil, testNow)
	assert.ErrorIs(t, err, apperrors.ErrMissingReference)
}

func TestApplyAssignOutsourceStaysInPrepressByDefault(t *testing.T) {
	item := *testItem(models.StagePrepress, models.StatusApproved)
	actor := Actor{ID: "usr-pp", Role: RolePrepress}

	result, err := Apply(item, ActionAssignOutsource, actor, "", Payload{
		Vendor:     "Acme Foiling",
		JobDetails: "gold foil run",
	}, nil, testNow)
	require.NoError(t, err)

	assert.Equal(t, models.StagePrepress, result.Item.CurrentStage)
	assert.Equal(t, models.StatusOutsourced, result.Item.Status)
	assert.Equal(t, "Acme Foiling", result.Item.OutsourceVendor)

	// An explicit move pushes the item into the outsource stage
	result, err = Apply(item, ActionAssignOutsource, actor, "", Payload{
		Vendor:          "Acme Foiling",
		MoveToOutsource: true,
	}, nil, testNow)
	require.NoError(t, err)

	assert.Equal(t, models.StageOutsource, result.Item.CurrentStage)
}

func TestApplyUpdateBriefDefaultsKeyByStage(t *testing.T) {
	actor := Actor{ID: "usr-pp", Role: RolePrepress}

	item := *testItem(models.StagePrepress, models.StatusApproved)

	result, err := Apply(item, ActionUpdateBrief, actor, "", Payload{
		Brief: "two up, bleed 3mm",
	}, nil, testNow)
	require.NoError(t, err)

	assert.Equal(t, "two up, bleed 3mm", result.Item.Specifications[models.SpecPrepressBrief])

	// The caller's snapshot is untouched; the executor works on clones
	assert.Empty(t, item.Specifications[models.SpecPrepressBrief])
}

func TestApplyWritesOneTimelineEntry(t *testing.T) {
	item := *models.NewOrderItem("ord-1", "Posters", true, false, nil)
	actor := Actor{ID: "usr-sales", Name: "Dana", Role: RoleSales}

	result, err := Apply(item, ActionAssignDesign, actor, "handing off", Payload{}, nil, testNow)
	require.NoError(t, err)

	entry := result.Entry
	assert.Equal(t, item.OrderID, entry.OrderID)
	assert.Equal(t, item.ID, entry.ItemID)
	// The entry records the post-transition stage
	assert.Equal(t, models.StageDesign, entry.Stage)
	assert.Equal(t, string(ActionAssignDesign), entry.Action)
	assert.Equal(t, "handing off", entry.Notes)
	assert.Equal(t, "handing off", result.Item.LastWorkflowNote)
	assert.True(t, entry.IsPublic)
}

func TestApplyDefaultsNoteToActionLabel(t *testing.T) {
	item := *models.NewOrderItem("ord-1", "Posters", true, false, nil)
	actor := Actor{ID: "usr-sales", Role: RoleSales}

	result, err := Apply(item, ActionAssignDesign, actor, "", Payload{}, nil, testNow)
	require.NoError(t, err)

	assert.Equal(t, ActionAssignDesign.Label(), result.Entry.Notes)
}

func TestApplyOverride(t *testing.T) {
	admin := Actor{ID: "usr-admin", Name: "Root", Role: RoleAdmin}

	item := *testItem(models.StageProduction, models.StatusInProduction)
	item.StageSequence = models.StringList{"printing", "packing"}
	item.CurrentSubstage = "printing"

	stage := models.StageDesign
	status := models.StatusApproved

	result, err := ApplyOverride(item, OverridePatch{
		Stage:  &stage,
		Status: &status,
	}, admin, "undoing a premature handoff", testNow)
	require.NoError(t, err)

	assert.Equal(t, models.StageDesign, result.Item.CurrentStage)
	assert.Equal(t, models.StatusApproved, result.Item.Status)
	// Untouched fields survive
	assert.Equal(t, "printing", result.Item.CurrentSubstage)

	assert.Equal(t, string(ActionAdminOverride), result.Entry.Action)
	assert.False(t, result.Entry.IsPublic)
}

func TestApplyOverrideRejectsNonAdmin(t *testing.T) {
	item := *testItem(models.StageDesign, models.StatusApproved)
	designer := Actor{ID: "usr-design", Role: RoleDesign}

	_, err := ApplyOverride(item, OverridePatch{}, designer, "", testNow)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestApplyOverrideRejectsUnknownStage(t *testing.T) {
	item := *testItem(models.StageDesign, models.StatusApproved)
	admin := Actor{ID: "usr-admin", Role: RoleAdmin}

	bad := models.Stage("warehouse")

	_, err := ApplyOverride(item, OverridePatch{Stage: &bad}, admin, "", testNow)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
