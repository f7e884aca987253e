package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/printcraft/order-workflow-api/internal/models"
	"github.com/printcraft/order-workflow-api/internal/repository"
	"github.com/printcraft/order-workflow-api/pkg/logger"
)

// DeadLetterProcessorConfig holds configuration for the dead letter
// processor
type DeadLetterProcessorConfig struct {
	PollingInterval time.Duration
	BatchSize       int
}

// DefaultDeadLetterProcessorConfig returns defaults with a slower
// cadence than the main outbox processor
func DefaultDeadLetterProcessorConfig() DeadLetterProcessorConfig {
	return DeadLetterProcessorConfig{
		PollingInterval: 30 * time.Second,
		BatchSize:       10,
	}
}

// DeadLetterProcessor retries dead letter messages that an operator
// has flagged for reprocessing, reusing the same handlers as the main
// processor
type DeadLetterProcessor struct {
	deadLetterRepo *repository.DeadLetterRepository
	handlers       map[string]MessageHandler
	config         DeadLetterProcessorConfig
	logger         logger.Logger
	stopCh         chan struct{}
	wg             sync.WaitGroup
}

// NewDeadLetterProcessor creates a new DeadLetterProcessor
func NewDeadLetterProcessor(
	deadLetterRepo *repository.DeadLetterRepository,
	config DeadLetterProcessorConfig,
	logger logger.Logger,
) *DeadLetterProcessor {
	return &DeadLetterProcessor{
		deadLetterRepo: deadLetterRepo,
		handlers:       make(map[string]MessageHandler),
		config:         config,
		logger:         logger,
		stopCh:         make(chan struct{}),
	}
}

// RegisterHandler registers a handler for an event type
func (p *DeadLetterProcessor) RegisterHandler(eventType string, handler MessageHandler) {
	p.handlers[eventType] = handler
}

// Start begins polling for retrying messages in a background goroutine
func (p *DeadLetterProcessor) Start(ctx context.Context) {
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.config.PollingInterval)
		defer ticker.Stop()

		p.logger.Info("Dead letter processor started",
			"pollingInterval", p.config.PollingInterval)

		for {
			select {
			case <-ctx.Done():
				p.logger.Info("Dead letter processor stopping, context cancelled")
				return
			case <-p.stopCh:
				p.logger.Info("Dead letter processor stopping")
				return
			case <-ticker.C:
				p.processBatch(ctx)
			}
		}
	}()
}

// Stop signals the processor to stop and waits for the current batch
func (p *DeadLetterProcessor) Stop() {
	close(p.stopCh)
	p.wg.Wait()
}

func (p *DeadLetterProcessor) processBatch(ctx context.Context) {
	messages, err := p.deadLetterRepo.GetRetryingMessages(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.Error("Failed to fetch retrying dead letter messages", "error", err)
		return
	}

	for _, msg := range messages {
		select {
		case <-ctx.Done():
			return
		default:
		}

		p.processMessage(ctx, msg)
	}
}

func (p *DeadLetterProcessor) processMessage(ctx context.Context, msg *models.DeadLetterMessage) {
	handler, ok := p.handlers[msg.EventType]
	if !ok {
		p.logger.Error("No handler registered for dead letter event type",
			"eventType", msg.EventType, "messageID", msg.ID)
		if err := p.deadLetterRepo.MarkRetryResult(ctx, msg.ID, false, "no handler for event type"); err != nil {
			p.logger.Error("Failed to record dead letter retry result", "error", err, "messageID", msg.ID)
		}
		return
	}

	// Rewrap as an outbox message so handlers see one shape
	outboxMsg := &models.OutboxMessage{
		ID:            msg.OriginalMessageID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		EventType:     msg.EventType,
		Payload:       msg.Payload,
	}

	err := handler.Handle(ctx, outboxMsg)

	if err != nil {
		p.logger.Warn("Dead letter retry failed",
			"error", err, "messageID", msg.ID, "eventType", msg.EventType)
		if markErr := p.deadLetterRepo.MarkRetryResult(ctx, msg.ID, false, err.Error()); markErr != nil {
			p.logger.Error("Failed to record dead letter retry result", "error", markErr, "messageID", msg.ID)
		}
		return
	}

	if err := p.deadLetterRepo.MarkRetryResult(ctx, msg.ID, true, ""); err != nil {
		p.logger.Error("Failed to record dead letter retry result", "error", err, "messageID", msg.ID)
		return
	}

	p.logger.Info("Dead letter message resolved",
		"messageID", msg.ID, "eventType", msg.EventType)
}
