package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/printcraft/order-workflow-api/internal/clients"
	"github.com/printcraft/order-workflow-api/internal/models"
	"github.com/printcraft/order-workflow-api/pkg/logger"
)

// InventoryHandler forwards material reservation events to the
// inventory service
type InventoryHandler struct {
	client *clients.InventoryClient
	logger logger.Logger
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(client *clients.InventoryClient, logger logger.Logger) *InventoryHandler {
	return &InventoryHandler{
		client: client,
		logger: logger,
	}
}

// Handle unwraps the reservation from the event envelope and calls the
// inventory service
func (h *InventoryHandler) Handle(ctx context.Context, msg *models.OutboxMessage) error {
	var event struct {
		Data models.MaterialReservationData `json:"data"`
	}

	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("failed to unmarshal reservation event: %w", err)
	}

	if err := h.client.ReserveMaterial(ctx, event.Data); err != nil {
		return err
	}

	h.logger.Info("Material reserved",
		"itemID", event.Data.ItemID,
		"material", event.Data.Material,
		"quantity", event.Data.Quantity)

	return nil
}
