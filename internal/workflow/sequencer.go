package workflow

import (
	"time"

	"github.com/printcraft/order-workflow-api/internal/models"
	apperrors "github.com/printcraft/order-workflow-api/pkg/errors"
)

// StartSubstage moves the item's active production step from
// not_started to in_progress and stamps the start time for duration
// tracking. Starting a step that is already running is an error.
func StartSubstage(item *models.OrderItem, now time.Time) error {
	if !item.HasActiveSubstage() {
		return apperrors.NewInvalidTransitionError(
			string(item.CurrentStage), string(item.Status),
			string(ActionStartSubstage), string(RoleProduction))
	}

	if item.SubstageStatus == models.SubstageInProgress {
		return apperrors.NewInvalidTransitionError(
			string(item.CurrentStage), string(item.SubstageStatus),
			string(ActionStartSubstage), string(RoleProduction))
	}

	item.SubstageStatus = models.SubstageInProgress
	item.SubstageStartedAt = &now
	return nil
}

// CompleteSubstage finishes the active production step and advances the
// cursor through the item's frozen sequence. Completing the last step
// promotes the item to dispatch and clears the substage fields; the
// returned bool reports that promotion.
//
// A cursor key that is no longer present in the sequence (the catalog
// entry was removed after assignment) is treated as sitting before the
// first step: the cursor restarts at the head of the sequence rather
// than crashing or silently completing the item.
func CompleteSubstage(item *models.OrderItem) (bool, error) {
	if !item.HasActiveSubstage() || item.SubstageStatus != models.SubstageInProgress {
		return false, apperrors.NewInvalidTransitionError(
			string(item.CurrentStage), string(item.SubstageStatus),
			string(ActionCompleteSubstage), string(RoleProduction))
	}

	if len(item.StageSequence) == 0 {
		return false, apperrors.NewInvalidTransitionError(
			string(item.CurrentStage), string(item.SubstageStatus),
			string(ActionCompleteSubstage), string(RoleProduction))
	}

	idx := item.StageSequence.IndexOf(item.CurrentSubstage)

	if idx == -1 {
		item.CurrentSubstage = item.StageSequence[0]
		item.SubstageStatus = models.SubstageNotStarted
		item.SubstageStartedAt = nil
		return false, nil
	}

	if idx == len(item.StageSequence)-1 {
		promoteToDispatch(item)
		return true, nil
	}

	item.CurrentSubstage = item.StageSequence[idx+1]
	item.SubstageStatus = models.SubstageNotStarted
	item.SubstageStartedAt = nil
	return false, nil
}

func promoteToDispatch(item *models.OrderItem) {
	item.CurrentStage = models.StageDispatch
	item.AssignedDepartment = ""
	item.CurrentSubstage = ""
	item.SubstageStatus = ""
	item.SubstageStartedAt = nil
}
