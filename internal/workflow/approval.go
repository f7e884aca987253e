package workflow

import (
	"github.com/printcraft/order-workflow-api/internal/models"
	apperrors "github.com/printcraft/order-workflow-api/pkg/errors"
)

// EnterApproval moves an item into the customer-approval loop. The
// item physically moves to sales while the originating department and
// assignee are snapshotted so a later rejection can route back.
// Re-entering the loop while already pending is an invalid transition;
// the rule table never offers it, but direct callers are validated too.
func EnterApproval(item *models.OrderItem, salesContact, salesContactName string) error {
	if item.Status == models.StatusPendingApproval {
		return apperrors.NewInvalidTransitionError(
			string(item.CurrentStage), string(item.Status),
			string(ActionSendForApproval), string(RoleForDepartment(item.EffectiveDepartment())))
	}

	item.PreviousDepartment = string(item.CurrentStage)
	item.PreviousAssignedTo = item.AssignedTo
	item.CurrentStage = models.StageSales
	item.AssignedDepartment = string(models.StageSales)
	item.Status = models.StatusPendingApproval
	item.AssignedTo = salesContact
	item.AssignedToName = salesContactName
	return nil
}

// ApproveItem records customer sign-off and routes the item forward:
// to design when the item needs design work, straight to prepress
// otherwise.
func ApproveItem(item *models.OrderItem) {
	target := models.StagePrepress

	if item.NeedDesign {
		target = models.StageDesign
	}

	item.CurrentStage = target
	item.AssignedDepartment = string(target)
	item.Status = models.StatusApproved
	item.AssignedTo = item.PreviousAssignedTo
	item.AssignedToName = ""
}

// RejectItem records a customer rejection and routes the item back to
// the department it came from, falling back to design when that memory
// is missing.
func RejectItem(item *models.OrderItem) {
	target := models.StageDesign

	if item.PreviousDepartment != "" && models.ValidStage(models.Stage(item.PreviousDepartment)) {
		target = models.Stage(item.PreviousDepartment)
	}

	item.CurrentStage = target
	item.AssignedDepartment = string(target)
	item.Status = models.StatusRejected
	item.AssignedTo = item.PreviousAssignedTo
	item.AssignedToName = ""
}
