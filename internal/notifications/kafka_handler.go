package notifications

import (
	"context"

	"github.com/printcraft/order-workflow-api/internal/models"
	"github.com/printcraft/order-workflow-api/pkg/kafka"
	"github.com/printcraft/order-workflow-api/pkg/logger"
)

// KafkaHandler publishes outbox messages to a Kafka topic. Used for
// transition events and user notifications; downstream consumers fan
// them out to dashboards and notification channels.
type KafkaHandler struct {
	producer *kafka.Producer
	topic    string
	logger   logger.Logger
}

// NewKafkaHandler creates a handler publishing to the given topic
func NewKafkaHandler(producer *kafka.Producer, topic string, logger logger.Logger) *KafkaHandler {
	return &KafkaHandler{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Handle publishes the message payload keyed by aggregate id, so all
// events for one item land on the same partition in order
func (h *KafkaHandler) Handle(ctx context.Context, msg *models.OutboxMessage) error {
	err := h.producer.SendMessage(ctx, h.topic, msg.AggregateID, msg.Payload)
	if err != nil {
		return err
	}

	h.logger.Debug("Published outbox message to Kafka",
		"topic", h.topic, "eventType", msg.EventType, "aggregateID", msg.AggregateID)

	return nil
}
