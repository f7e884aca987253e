package workflow

import (
	"github.com/printcraft/order-workflow-api/internal/models"
)

// AvailableActions computes the action set legal for the given role
// against the item's current state. The department implied by
// current_stage decides which action set applies, even when the
// assigned department override disagrees; admins see the exact set the
// department user would see. Items in dispatch or completed take no
// department actions at all; only the admin override path can touch
// them.
func AvailableActions(item *models.OrderItem, role Role) []Action {
	dept := item.EffectiveDepartment()

	if dept == "" {
		return nil
	}

	deptRole := RoleForDepartment(dept)

	if role != RoleAdmin && role != deptRole {
		return nil
	}

	var ids []ActionID

	switch item.CurrentStage {
	case models.StageSales:
		switch item.Status {
		case models.StatusPendingApproval:
			ids = append(ids, ActionApprove, ActionRequestRevision)
		case models.StatusNewOrder:
			if item.NeedDesign {
				ids = append(ids, ActionAssignDesign)
			} else {
				ids = append(ids, ActionMarkDesignNotRequired)
			}
		}

	case models.StageDesign:
		ids = append(ids, ActionUploadDesign, ActionUpdateBrief)

		// Items bounced by the customer get the distinct revision
		// action instead of the first-time approval request
		if item.Status == models.StatusRejected {
			ids = append(ids, ActionSubmitRevision)
		} else {
			ids = append(ids, ActionSendForApproval)
		}

		ids = append(ids, ActionAssignPrepress, ActionSendToProduction)

		if item.DesignOnly {
			ids = append(ids, ActionMarkComplete)
		}

	case models.StagePrepress:
		ids = append(ids, ActionUpdateBrief, ActionSendForRevision,
			ActionSendToProduction, ActionAssignOutsource)

	case models.StageProduction:
		if item.CurrentSubstage != "" {
			if item.SubstageStatus == models.SubstageInProgress {
				ids = append(ids, ActionCompleteSubstage)
			} else {
				ids = append(ids, ActionStartSubstage)
			}
		} else {
			ids = append(ids, ActionMarkCompleted)
		}

	case models.StageOutsource:
		ids = append(ids, ActionMarkCompleted)
	}

	actions := make([]Action, 0, len(ids))

	for _, id := range ids {
		actions = append(actions, Action{
			ID:     id,
			Label:  id.Label(),
			Role:   deptRole,
			Public: id.IsPublic(),
		})
	}

	return actions
}

// IsAvailable reports whether the given action id is currently legal
// for the role against the item's state
func IsAvailable(item *models.OrderItem, role Role, actionID ActionID) bool {
	for _, a := range AvailableActions(item, role) {
		if a.ID == actionID {
			return true
		}
	}
	return false
}
