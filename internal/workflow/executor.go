package workflow

import (
	"fmt"
	"time"

	"github.com/printcraft/order-workflow-api/internal/models"
	apperrors "github.com/printcraft/order-workflow-api/pkg/errors"
)

// SideEffectKind classifies a declarative side-effect instruction
type SideEffectKind string

const (
	SideEffectNotify          SideEffectKind = "notify"
	SideEffectReserveMaterial SideEffectKind = "reserve_material"
)

// SideEffect is an instruction for an external collaborator. The
// executor never performs these itself; they are dispatched
// best-effort after the state transition commits.
type SideEffect struct {
	Kind     SideEffectKind
	UserID   string
	Title    string
	Message  string
	Material string
	Quantity int
}

// Result is the outcome of applying one action: the new item state,
// exactly one timeline entry, and zero or more side-effect
// instructions
type Result struct {
	Item        models.OrderItem
	Entry       *models.TimelineEntry
	SideEffects []SideEffect
}

// Apply executes a workflow action against a snapshot of an item and
// returns the new state without touching the input. Availability is
// re-derived here against the given state; a stale client-supplied
// action list is never trusted. Callers persist the result and the
// timeline entry as one logical transaction.
func Apply(item models.OrderItem, actionID ActionID, actor Actor, note string, p Payload, defaultSequence []string, now time.Time) (*Result, error) {
	if item.ID == "" {
		return nil, apperrors.NewMissingReferenceError("item_id")
	}
	if item.OrderID == "" {
		return nil, apperrors.NewMissingReferenceError("order_id")
	}
	if actor.ID == "" {
		return nil, apperrors.NewMissingReferenceError("actor_id")
	}

	if !IsAvailable(&item, actor.Role, actionID) {
		return nil, apperrors.NewInvalidTransitionError(
			string(item.CurrentStage), string(item.Status),
			string(actionID), string(actor.Role))
	}

	// The snapshot shares map and slice headers with the caller's copy
	item.StageSequence = append(models.StringList(nil), item.StageSequence...)
	item.Specifications = cloneSpecs(item.Specifications)

	var effects []SideEffect

	switch actionID {
	case ActionAssignDesign:
		moveToDepartment(&item, models.StageDesign)
		effects = assign(&item, p, effects)

	case ActionMarkDesignNotRequired:
		item.NeedDesign = false
		moveToDepartment(&item, models.StagePrepress)
		effects = assign(&item, p, effects)

	case ActionApprove:
		ApproveItem(&item)
		effects = notifyAssignee(&item, "Customer approved", effects)

	case ActionRequestRevision:
		RejectItem(&item)
		effects = notifyAssignee(&item, "Customer requested a revision", effects)

	case ActionUploadDesign:
		// File storage is handled by an external collaborator; the
		// engine only records that a design landed

	case ActionSendForApproval, ActionSubmitRevision:
		if err := EnterApproval(&item, p.AssignTo, p.AssignToName); err != nil {
			return nil, err
		}
		effects = notifyAssignee(&item, "Item awaiting customer approval", effects)

	case ActionAssignPrepress:
		moveToDepartment(&item, models.StagePrepress)
		effects = assign(&item, p, effects)

	case ActionSendToProduction:
		sequence := p.Sequence

		if len(sequence) == 0 {
			sequence = defaultSequence
		}

		item.StageSequence = append(models.StringList(nil), sequence...)
		moveToDepartment(&item, models.StageProduction)
		item.Status = models.StatusInProduction

		if len(item.StageSequence) > 0 {
			item.CurrentSubstage = item.StageSequence[0]
			item.SubstageStatus = models.SubstageNotStarted
		} else {
			item.CurrentSubstage = ""
			item.SubstageStatus = ""
		}
		item.SubstageStartedAt = nil

		effects = assign(&item, p, effects)

		if p.Material != "" && p.MaterialQty > 0 {
			effects = append(effects, SideEffect{
				Kind:     SideEffectReserveMaterial,
				Material: p.Material,
				Quantity: p.MaterialQty,
			})
		}

	case ActionMarkComplete:
		item.CurrentStage = models.StageCompleted
		item.AssignedDepartment = ""
		item.Status = models.StatusCompleted

	case ActionSendForRevision:
		moveToDepartment(&item, models.StageDesign)
		effects = assign(&item, p, effects)

	case ActionAssignOutsource:
		if p.Vendor == "" {
			return nil, apperrors.NewMissingReferenceError("vendor")
		}

		item.OutsourceVendor = p.Vendor
		item.OutsourceDetails = p.JobDetails
		item.Status = models.StatusOutsourced

		if p.MoveToOutsource {
			item.CurrentStage = models.StageOutsource
			item.AssignedDepartment = string(models.StageOutsource)
		}

	case ActionStartSubstage:
		if err := StartSubstage(&item, now); err != nil {
			return nil, err
		}

	case ActionCompleteSubstage:
		if _, err := CompleteSubstage(&item); err != nil {
			return nil, err
		}

	case ActionMarkCompleted:
		promoteToDispatch(&item)

	case ActionUpdateBrief:
		key := p.BriefKey

		if key == "" {
			key = briefKeyForStage(item.CurrentStage)
		}

		item.Specifications[key] = p.Brief

	default:
		return nil, apperrors.NewInvalidTransitionError(
			string(item.CurrentStage), string(item.Status),
			string(actionID), string(actor.Role))
	}

	entryNote := note

	if entryNote == "" {
		entryNote = actionID.Label()
	}

	item.LastWorkflowNote = entryNote
	item.UpdatedAt = now

	entry := models.NewTimelineEntry(
		item.OrderID, item.ID, item.CurrentStage,
		string(actionID), actor.ID, actor.Name,
		entryNote, actionID.IsPublic(), now)

	return &Result{
		Item:        item,
		Entry:       entry,
		SideEffects: effects,
	}, nil
}

func moveToDepartment(item *models.OrderItem, dept models.Stage) {
	item.CurrentStage = dept
	item.AssignedDepartment = string(dept)
}

// assign applies the payload's target assignee and queues a
// notification for them
func assign(item *models.OrderItem, p Payload, effects []SideEffect) []SideEffect {
	if p.AssignTo == "" {
		return effects
	}

	item.AssignedTo = p.AssignTo
	item.AssignedToName = p.AssignToName

	return append(effects, SideEffect{
		Kind:    SideEffectNotify,
		UserID:  p.AssignTo,
		Title:   "Item assigned to you",
		Message: fmt.Sprintf("%s is now in %s", item.Name, item.CurrentStage),
	})
}

func notifyAssignee(item *models.OrderItem, title string, effects []SideEffect) []SideEffect {
	if item.AssignedTo == "" {
		return effects
	}

	return append(effects, SideEffect{
		Kind:    SideEffectNotify,
		UserID:  item.AssignedTo,
		Title:   title,
		Message: fmt.Sprintf("%s (%s)", item.Name, item.CurrentStage),
	})
}

func briefKeyForStage(stage models.Stage) string {
	switch stage {
	case models.StagePrepress:
		return models.SpecPrepressBrief
	case models.StageProduction:
		return models.SpecProductionBrief
	default:
		return models.SpecDesignBrief
	}
}

func cloneSpecs(src models.SpecMap) models.SpecMap {
	dst := make(models.SpecMap, len(src))

	for k, v := range src {
		dst[k] = v
	}

	return dst
}
