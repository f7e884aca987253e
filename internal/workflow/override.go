package workflow

import (
	"time"

	"github.com/printcraft/order-workflow-api/internal/models"
	apperrors "github.com/printcraft/order-workflow-api/pkg/errors"
)

// OverridePatch is the explicit correction dialog an admin fills in.
// Nil fields are left untouched. Overrides bypass the rule table and
// exist for fixing items the normal flow got wrong.
type OverridePatch struct {
	Stage          *models.Stage          `json:"stage,omitempty"`
	Status         *models.Status         `json:"status,omitempty"`
	Department     *string                `json:"department,omitempty"`
	AssignTo       *string                `json:"assign_to,omitempty"`
	AssignToName   *string                `json:"assign_to_name,omitempty"`
	Substage       *string                `json:"substage,omitempty"`
	SubstageStatus *models.SubstageStatus `json:"substage_status,omitempty"`
	Sequence       []string               `json:"sequence,omitempty"`
}

// ApplyOverride applies an admin correction to an item snapshot. Only
// admins may call it; target stages are validated but the result is
// otherwise arbitrary, so it is recorded on the timeline as an
// internal admin_override entry.
func ApplyOverride(item models.OrderItem, patch OverridePatch, actor Actor, note string, now time.Time) (*Result, error) {
	if item.ID == "" {
		return nil, apperrors.NewMissingReferenceError("item_id")
	}
	if actor.ID == "" {
		return nil, apperrors.NewMissingReferenceError("actor_id")
	}

	if actor.Role != RoleAdmin {
		return nil, apperrors.NewInvalidTransitionError(
			string(item.CurrentStage), string(item.Status),
			string(ActionAdminOverride), string(actor.Role))
	}

	item.StageSequence = append(models.StringList(nil), item.StageSequence...)
	item.Specifications = cloneSpecs(item.Specifications)

	if patch.Stage != nil {
		if !models.ValidStage(*patch.Stage) {
			return nil, apperrors.NewInvalidInputError("unknown stage: " + string(*patch.Stage))
		}
		item.CurrentStage = *patch.Stage
	}

	if patch.Status != nil {
		item.Status = *patch.Status
	}

	if patch.Department != nil {
		item.AssignedDepartment = *patch.Department
	}

	if patch.AssignTo != nil {
		item.AssignedTo = *patch.AssignTo
	}

	if patch.AssignToName != nil {
		item.AssignedToName = *patch.AssignToName
	}

	if patch.Substage != nil {
		item.CurrentSubstage = *patch.Substage
	}

	if patch.SubstageStatus != nil {
		item.SubstageStatus = *patch.SubstageStatus
	}

	if patch.Sequence != nil {
		item.StageSequence = append(models.StringList(nil), patch.Sequence...)
	}

	entryNote := note

	if entryNote == "" {
		entryNote = ActionAdminOverride.Label()
	}

	item.LastWorkflowNote = entryNote
	item.UpdatedAt = now

	entry := models.NewTimelineEntry(
		item.OrderID, item.ID, item.CurrentStage,
		string(ActionAdminOverride), actor.ID, actor.Name,
		entryNote, ActionAdminOverride.IsPublic(), now)

	return &Result{
		Item:  item,
		Entry: entry,
	}, nil
}
