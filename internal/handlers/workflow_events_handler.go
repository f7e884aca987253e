package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shopify/sarama"
	"github.com/printcraft/order-workflow-api/internal/models"
	"github.com/printcraft/order-workflow-api/pkg/logger"
)

// WorkflowEventsHandler consumes workflow transition events from Kafka.
// The API publishes its own transitions there; consuming them back
// gives a single place to observe the whole shop floor, including
// events from other producers on the topic.
type WorkflowEventsHandler struct {
	logger logger.Logger
}

// NewWorkflowEventsHandler creates a new WorkflowEventsHandler
func NewWorkflowEventsHandler(logger logger.Logger) *WorkflowEventsHandler {
	return &WorkflowEventsHandler{
		logger: logger,
	}
}

// HandleMessage processes one consumed Kafka message
func (h *WorkflowEventsHandler) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event struct {
		EventType string                      `json:"event_type"`
		EventID   string                      `json:"event_id"`
		Data      models.ItemTransitionedData `json:"data"`
	}

	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal workflow event: %w", err)
	}

	if event.EventType != models.EventItemTransitioned {
		h.logger.Debug("Skipping non-transition event",
			"eventType", event.EventType, "offset", msg.Offset)
		return nil
	}

	h.logger.Info("Item transitioned",
		"eventID", event.EventID,
		"orderID", event.Data.OrderID,
		"itemID", event.Data.ItemID,
		"action", event.Data.Action,
		"fromStage", event.Data.FromStage,
		"toStage", event.Data.ToStage,
		"status", event.Data.Status,
		"actor", event.Data.Actor,
		"partition", msg.Partition,
		"offset", msg.Offset)

	return nil
}
