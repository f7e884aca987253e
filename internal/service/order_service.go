package service

import (
	"context"
	"time"

	"github.com/printcraft/order-workflow-api/internal/database"
	"github.com/printcraft/order-workflow-api/internal/models"
	"github.com/printcraft/order-workflow-api/internal/repository"
	apperrors "github.com/printcraft/order-workflow-api/pkg/errors"
	"github.com/printcraft/order-workflow-api/pkg/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// OrderService orchestrates order and item lifecycle operations
type OrderService struct {
	db           *database.Database
	orderRepo    *repository.OrderRepository
	itemRepo     *repository.ItemRepository
	timelineRepo *repository.TimelineRepository
	logger       logger.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	db *database.Database,
	orderRepo *repository.OrderRepository,
	itemRepo *repository.ItemRepository,
	timelineRepo *repository.TimelineRepository,
	logger logger.Logger,
) *OrderService {
	return &OrderService{
		db:           db,
		orderRepo:    orderRepo,
		itemRepo:     itemRepo,
		timelineRepo: timelineRepo,
		logger:       logger,
	}
}

// CreateItemInput describes one item on a new order
type CreateItemInput struct {
	Name           string          `json:"name"`
	NeedDesign     bool            `json:"need_design"`
	DesignOnly     bool            `json:"design_only"`
	DeliveryDate   *time.Time      `json:"delivery_date,omitempty"`
	Specifications models.SpecMap  `json:"specifications,omitempty"`
}

// CreateOrderInput describes a new order and its items
type CreateOrderInput struct {
	CustomerRef  string            `json:"customer_ref"`
	DeliveryDate *time.Time        `json:"delivery_date,omitempty"`
	Items        []CreateItemInput `json:"items"`
	CreatedBy    string            `json:"created_by"`
	CreatedByName string           `json:"created_by_name"`
}

// CreateOrder creates an order with its items in a single transaction.
// Every item starts in the sales stage with a new_order status and an
// opening timeline entry.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.CustomerRef == "" {
		return nil, apperrors.NewInvalidInputError("customer_ref is required")
	}
	if len(input.Items) == 0 {
		return nil, apperrors.NewInvalidInputError("at least one item is required")
	}
	for _, item := range input.Items {
		if item.Name == "" {
			return nil, apperrors.NewInvalidInputError("item name is required")
		}
	}

	sequence, err := s.db.NextOrderNumber(ctx)
	if err != nil {
		s.logger.Error("Failed to allocate order number", "error", err)
		return nil, apperrors.NewInternalError("failed to allocate order number")
	}

	order := models.NewOrder(input.CustomerRef, input.DeliveryDate, sequence)

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to begin transaction")
	}
	defer tx.Rollback()

	if err := s.orderRepo.CreateInTx(tx, order); err != nil {
		s.logger.Error("Failed to create order", "error", err)
		return nil, apperrors.NewInternalError("failed to create order")
	}

	now := models.GetCurrentTime()

	for _, in := range input.Items {
		item := models.NewOrderItem(order.ID, in.Name, in.NeedDesign, in.DesignOnly, in.DeliveryDate)
		if len(in.Specifications) > 0 {
			item.Specifications = in.Specifications
		}

		if err := s.itemRepo.CreateInTx(tx, item); err != nil {
			s.logger.Error("Failed to create order item", "error", err, "orderID", order.ID)
			return nil, apperrors.NewInternalError("failed to create order item")
		}

		entry := models.NewTimelineEntry(
			order.ID, item.ID, item.CurrentStage, "order_created",
			input.CreatedBy, input.CreatedByName, "Order placed", true, now)

		if err := s.timelineRepo.CreateInTx(tx, entry); err != nil {
			s.logger.Error("Failed to create timeline entry", "error", err, "itemID", item.ID)
			return nil, apperrors.NewInternalError("failed to record order timeline")
		}

		item.RecomputePriority(now)
		order.Items = append(order.Items, item)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("Failed to commit order creation", "error", err)
		return nil, apperrors.NewInternalError("failed to commit order creation")
	}

	s.logger.Info("Order created", "orderID", order.ID, "orderNumber", order.OrderNumber, "items", len(order.Items))

	return order, nil
}

// GetOrder retrieves an order with its items. Item priorities are
// recomputed from the effective delivery date at read time.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("order not found")
		}
		return nil, apperrors.NewInternalError("failed to get order")
	}

	if err := s.attachItems(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// GetOrderByNumber retrieves an order by its human-facing number
func (s *OrderService) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	order, err := s.orderRepo.GetByNumber(ctx, number)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("order not found")
		}
		return nil, apperrors.NewInternalError("failed to get order")
	}

	if err := s.attachItems(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// ListOrders retrieves orders with pagination
func (s *OrderService) ListOrders(ctx context.Context, limit, offset int) ([]*models.Order, int, error) {
	limit, offset = normalizePage(limit, offset)

	orders, err := s.orderRepo.GetAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to list orders")
	}

	total, err := s.orderRepo.Count(ctx)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to count orders")
	}

	return orders, total, nil
}

// CompleteOrder marks an order as completed. Items keep their own
// workflow state; order completion is an administrative summary flag.
func (s *OrderService) CompleteOrder(ctx context.Context, id string) error {
	err := s.orderRepo.MarkCompleted(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NewNotFoundError("order not found")
		}
		return apperrors.NewInternalError("failed to complete order")
	}

	s.logger.Info("Order completed", "orderID", id)
	return nil
}

// DeleteOrder removes an order, its items and their timeline entries
// in one transaction
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction")
	}
	defer tx.Rollback()

	if err := s.orderRepo.DeleteCascadeInTx(tx, id); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NewNotFoundError("order not found")
		}
		s.logger.Error("Failed to delete order", "error", err, "orderID", id)
		return apperrors.NewInternalError("failed to delete order")
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit order deletion")
	}

	s.logger.Info("Order deleted", "orderID", id)
	return nil
}

// GetItem retrieves a single item with its priority recomputed
func (s *OrderService) GetItem(ctx context.Context, id string) (*models.OrderItem, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("item not found")
		}
		return nil, apperrors.NewInternalError("failed to get item")
	}

	item.RecomputePriority(models.GetCurrentTime())
	return item, nil
}

// ListItemsByDepartment retrieves the work queue for a department:
// items whose current stage or assigned department matches
func (s *OrderService) ListItemsByDepartment(ctx context.Context, dept string, limit, offset int) ([]*models.OrderItem, error) {
	if !models.ValidStage(models.Stage(dept)) {
		return nil, apperrors.NewInvalidInputError("unknown department")
	}

	limit, offset = normalizePage(limit, offset)

	items, err := s.itemRepo.GetByDepartment(ctx, dept, limit, offset)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list department items")
	}

	now := models.GetCurrentTime()
	for _, item := range items {
		item.RecomputePriority(now)
	}

	return items, nil
}

// TrackingView is the customer-facing projection of an order: item
// stage summaries plus public timeline entries only
type TrackingView struct {
	OrderNumber  string                   `json:"order_number"`
	IsCompleted  bool                     `json:"is_completed"`
	DeliveryDate *time.Time               `json:"delivery_date,omitempty"`
	Items        []TrackingItem           `json:"items"`
	Timeline     []*models.TimelineEntry  `json:"timeline"`
}

// TrackingItem is the public summary of one item's progress
type TrackingItem struct {
	Name            string        `json:"name"`
	CurrentStage    models.Stage  `json:"current_stage"`
	Status          models.Status `json:"status"`
	CurrentSubstage string        `json:"current_substage,omitempty"`
}

// TrackOrder builds the public tracking feed for an order number.
// Internal fields (assignees, vendors, briefs) never appear here.
func (s *OrderService) TrackOrder(ctx context.Context, number string) (*TrackingView, error) {
	order, err := s.GetOrderByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	timeline, err := s.timelineRepo.GetByOrderID(ctx, order.ID, true)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load order timeline")
	}

	view := &TrackingView{
		OrderNumber:  order.OrderNumber,
		IsCompleted:  order.IsCompleted,
		DeliveryDate: order.DeliveryDate,
		Items:        make([]TrackingItem, 0, len(order.Items)),
		Timeline:     timeline,
	}

	for _, item := range order.Items {
		view.Items = append(view.Items, TrackingItem{
			Name:            item.Name,
			CurrentStage:    item.CurrentStage,
			Status:          item.Status,
			CurrentSubstage: item.CurrentSubstage,
		})
	}

	return view, nil
}

func (s *OrderService) attachItems(ctx context.Context, order *models.Order) error {
	items, err := s.itemRepo.GetByOrderID(ctx, order.ID)
	if err != nil {
		return apperrors.NewInternalError("failed to get order items")
	}

	now := models.GetCurrentTime()
	for _, item := range items {
		item.PriorityComputed = models.ComputePriority(order.EffectiveDeliveryDate(item), now)
	}

	order.Items = items
	return nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
