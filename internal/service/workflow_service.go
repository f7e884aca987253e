package service

import (
	"context"
	"errors"

	"github.com/printcraft/order-workflow-api/internal/catalog"
	"github.com/printcraft/order-workflow-api/internal/database"
	"github.com/printcraft/order-workflow-api/internal/models"
	"github.com/printcraft/order-workflow-api/internal/repository"
	"github.com/printcraft/order-workflow-api/internal/workflow"
	apperrors "github.com/printcraft/order-workflow-api/pkg/errors"
	"github.com/printcraft/order-workflow-api/pkg/logger"
)

// WorkflowService executes workflow actions against items. Each action
// commits the item update, its timeline entry and its outbox events in
// one transaction; side effects are dispatched asynchronously by the
// outbox processor after commit.
type WorkflowService struct {
	db           *database.Database
	itemRepo     *repository.ItemRepository
	timelineRepo *repository.TimelineRepository
	outboxRepo   *repository.OutboxRepository
	catalog      *catalog.Service
	logger       logger.Logger
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(
	db *database.Database,
	itemRepo *repository.ItemRepository,
	timelineRepo *repository.TimelineRepository,
	outboxRepo *repository.OutboxRepository,
	catalog *catalog.Service,
	logger logger.Logger,
) *WorkflowService {
	return &WorkflowService{
		db:           db,
		itemRepo:     itemRepo,
		timelineRepo: timelineRepo,
		outboxRepo:   outboxRepo,
		catalog:      catalog,
		logger:       logger,
	}
}

// AvailableActions returns the legal actions for an item as seen by
// the given role
func (s *WorkflowService) AvailableActions(ctx context.Context, itemID string, role workflow.Role) ([]workflow.Action, error) {
	if !workflow.ValidRole(role) {
		return nil, apperrors.NewInvalidInputError("unknown role")
	}

	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("item not found")
		}
		return nil, apperrors.NewInternalError("failed to get item")
	}

	return workflow.AvailableActions(item, role), nil
}

// PerformAction executes one workflow action against an item. The
// item is re-read fresh, the action re-validated against that state,
// and the result persisted with an optimistic concurrency check. A
// version conflict gets one automatic retry against the newer state
// before surfacing as a conflict to the caller.
func (s *WorkflowService) PerformAction(ctx context.Context, itemID string, actionID workflow.ActionID, actor workflow.Actor, note string, payload workflow.Payload) (*workflow.Result, error) {
	if !workflow.ValidRole(actor.Role) {
		return nil, apperrors.NewInvalidInputError("unknown role")
	}

	for attempt := 0; attempt < 2; attempt++ {
		result, err := s.performOnce(ctx, itemID, actionID, actor, note, payload)
		if err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				s.logger.Warn("Version conflict applying action, retrying",
					"itemID", itemID, "action", actionID, "attempt", attempt+1)
				continue
			}
			return nil, err
		}
		return result, nil
	}

	return nil, apperrors.NewConflictError("item changed since read, please retry")
}

func (s *WorkflowService) performOnce(ctx context.Context, itemID string, actionID workflow.ActionID, actor workflow.Actor, note string, payload workflow.Payload) (*workflow.Result, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("item not found")
		}
		return nil, apperrors.NewInternalError("failed to get item")
	}

	var defaultSequence []string
	if actionID == workflow.ActionSendToProduction && len(payload.Sequence) == 0 {
		defaultSequence, err = s.catalog.DefaultSequence(ctx)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to load production stages")
		}
	}

	fromStage := item.CurrentStage

	result, err := workflow.Apply(*item, actionID, actor, note, payload, defaultSequence, models.GetCurrentTime())
	if err != nil {
		return nil, err
	}

	if err := s.commitResult(ctx, fromStage, string(actionID), actor, result); err != nil {
		return nil, err
	}

	s.logger.Info("Workflow action applied",
		"itemID", itemID, "action", actionID,
		"fromStage", fromStage, "toStage", result.Item.CurrentStage,
		"status", result.Item.Status, "actor", actor.ID)

	return result, nil
}

// AdminOverride applies an arbitrary state patch to an item. Admin
// only; records an internal timeline entry and emits the same
// transition event as a regular action.
func (s *WorkflowService) AdminOverride(ctx context.Context, itemID string, patch workflow.OverridePatch, actor workflow.Actor, note string) (*workflow.Result, error) {
	for attempt := 0; attempt < 2; attempt++ {
		result, err := s.overrideOnce(ctx, itemID, patch, actor, note)
		if err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				s.logger.Warn("Version conflict applying override, retrying",
					"itemID", itemID, "attempt", attempt+1)
				continue
			}
			return nil, err
		}
		return result, nil
	}

	return nil, apperrors.NewConflictError("item changed since read, please retry")
}

func (s *WorkflowService) overrideOnce(ctx context.Context, itemID string, patch workflow.OverridePatch, actor workflow.Actor, note string) (*workflow.Result, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("item not found")
		}
		return nil, apperrors.NewInternalError("failed to get item")
	}

	fromStage := item.CurrentStage

	result, err := workflow.ApplyOverride(*item, patch, actor, note, models.GetCurrentTime())
	if err != nil {
		return nil, err
	}

	if err := s.commitResult(ctx, fromStage, string(workflow.ActionAdminOverride), actor, result); err != nil {
		return nil, err
	}

	s.logger.Info("Admin override applied",
		"itemID", itemID, "fromStage", fromStage,
		"toStage", result.Item.CurrentStage, "actor", actor.ID)

	return result, nil
}

// commitResult persists an applied action: the item update (with
// version check), its timeline entry and the outbox events in one
// transaction. Returns repository.ErrVersionConflict unwrapped so
// callers can retry.
func (s *WorkflowService) commitResult(ctx context.Context, fromStage models.Stage, action string, actor workflow.Actor, result *workflow.Result) error {
	messages, err := s.buildOutboxMessages(fromStage, action, actor, result)
	if err != nil {
		return apperrors.NewInternalError("failed to build outbox events")
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction")
	}
	defer tx.Rollback()

	if err := s.itemRepo.UpdateInTx(tx, &result.Item); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
		s.logger.Error("Failed to update item", "error", err, "itemID", result.Item.ID)
		return apperrors.NewInternalError("failed to update item")
	}

	if err := s.timelineRepo.CreateInTx(tx, result.Entry); err != nil {
		s.logger.Error("Failed to create timeline entry", "error", err, "itemID", result.Item.ID)
		return apperrors.NewInternalError("failed to record timeline entry")
	}

	for _, msg := range messages {
		if err := s.outboxRepo.CreateInTx(tx, msg); err != nil {
			s.logger.Error("Failed to create outbox message", "error", err, "itemID", result.Item.ID)
			return apperrors.NewInternalError("failed to record outbox event")
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("Failed to commit workflow action", "error", err, "itemID", result.Item.ID)
		return apperrors.NewInternalError("failed to commit workflow action")
	}

	return nil
}

func (s *WorkflowService) buildOutboxMessages(fromStage models.Stage, action string, actor workflow.Actor, result *workflow.Result) ([]*models.OutboxMessage, error) {
	transitioned, err := models.NewItemTransitionedEvent(models.ItemTransitionedData{
		OrderID:   result.Item.OrderID,
		ItemID:    result.Item.ID,
		Action:    action,
		FromStage: fromStage,
		ToStage:   result.Item.CurrentStage,
		Status:    result.Item.Status,
		Actor:     actor.ID,
		ActorName: actor.Name,
	})
	if err != nil {
		return nil, err
	}

	messages := []*models.OutboxMessage{transitioned}

	for _, effect := range result.SideEffects {
		switch effect.Kind {
		case workflow.SideEffectNotify:
			msg, err := models.NewNotifyUserEvent(models.NotificationData{
				UserID:  effect.UserID,
				Title:   effect.Title,
				Message: effect.Message,
				Type:    "workflow",
				OrderID: result.Item.OrderID,
				ItemID:  result.Item.ID,
			})
			if err != nil {
				return nil, err
			}
			messages = append(messages, msg)
		case workflow.SideEffectReserveMaterial:
			msg, err := models.NewReserveMaterialEvent(models.MaterialReservationData{
				OrderID:  result.Item.OrderID,
				ItemID:   result.Item.ID,
				Material: effect.Material,
				Quantity: effect.Quantity,
			})
			if err != nil {
				return nil, err
			}
			messages = append(messages, msg)
		}
	}

	return messages, nil
}

// ItemTimeline returns the timeline for one item, oldest first.
// publicOnly restricts the feed to customer-visible entries.
func (s *WorkflowService) ItemTimeline(ctx context.Context, itemID string, publicOnly bool) ([]*models.TimelineEntry, error) {
	if _, err := s.itemRepo.GetByID(ctx, itemID); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("item not found")
		}
		return nil, apperrors.NewInternalError("failed to get item")
	}

	entries, err := s.timelineRepo.GetByItemID(ctx, itemID, publicOnly)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load item timeline")
	}

	return entries, nil
}

// RemoveTimelineEntry soft-deletes a timeline entry so it stops
// appearing in feeds. The row is kept for audit.
func (s *WorkflowService) RemoveTimelineEntry(ctx context.Context, id int64) error {
	err := s.timelineRepo.SoftDelete(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NewNotFoundError("timeline entry not found")
		}
		return apperrors.NewInternalError("failed to remove timeline entry")
	}

	s.logger.Info("Timeline entry removed", "entryID", id)
	return nil
}
