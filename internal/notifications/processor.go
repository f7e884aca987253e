package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/printcraft/order-workflow-api/internal/models"
	"github.com/printcraft/order-workflow-api/internal/repository"
	"github.com/printcraft/order-workflow-api/pkg/logger"
)

// MessageHandler dispatches one outbox message to its destination
type MessageHandler interface {
	Handle(ctx context.Context, msg *models.OutboxMessage) error
}

// ProcessorConfig holds configuration for the outbox processor
type ProcessorConfig struct {
	PollingInterval time.Duration
	BatchSize       int
	MaxAttempts     int
}

// DefaultProcessorConfig returns sensible processor defaults
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollingInterval: 2 * time.Second,
		BatchSize:       20,
		MaxAttempts:     5,
	}
}

// Processor polls the outbox for pending side-effect instructions and
// dispatches them via registered per-event-type handlers. Messages that
// exhaust their attempts move to the dead letter table.
type Processor struct {
	outboxRepo     *repository.OutboxRepository
	deadLetterRepo *repository.DeadLetterRepository
	handlers       map[string]MessageHandler
	config         ProcessorConfig
	logger         logger.Logger
	stopCh         chan struct{}
	wg             sync.WaitGroup
}

// NewProcessor creates a new outbox Processor
func NewProcessor(
	outboxRepo *repository.OutboxRepository,
	deadLetterRepo *repository.DeadLetterRepository,
	config ProcessorConfig,
	logger logger.Logger,
) *Processor {
	return &Processor{
		outboxRepo:     outboxRepo,
		deadLetterRepo: deadLetterRepo,
		handlers:       make(map[string]MessageHandler),
		config:         config,
		logger:         logger,
		stopCh:         make(chan struct{}),
	}
}

// RegisterHandler registers a handler for an event type
func (p *Processor) RegisterHandler(eventType string, handler MessageHandler) {
	p.handlers[eventType] = handler
}

// Start begins polling for pending messages in a background goroutine
func (p *Processor) Start(ctx context.Context) {
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.config.PollingInterval)
		defer ticker.Stop()

		p.logger.Info("Outbox processor started",
			"pollingInterval", p.config.PollingInterval,
			"batchSize", p.config.BatchSize)

		for {
			select {
			case <-ctx.Done():
				p.logger.Info("Outbox processor stopping, context cancelled")
				return
			case <-p.stopCh:
				p.logger.Info("Outbox processor stopping")
				return
			case <-ticker.C:
				p.processBatch(ctx)
			}
		}
	}()
}

// Stop signals the processor to stop and waits for the current batch
func (p *Processor) Stop() {
	close(p.stopCh)
	p.wg.Wait()
}

func (p *Processor) processBatch(ctx context.Context) {
	messages, err := p.outboxRepo.GetPendingMessages(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.Error("Failed to fetch pending outbox messages", "error", err)
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

func (p *Processor) processMessage(ctx context.Context, msg *models.OutboxMessage) {
	if err := p.outboxRepo.MarkAsProcessing(ctx, msg.ID); err != nil {
		p.logger.Error("Failed to mark message as processing", "error", err, "messageID", msg.ID)
		return
	}

	attempts := msg.ProcessingAttempts + 1

	handler, ok := p.handlers[msg.EventType]
	if !ok {
		p.logger.Error("No handler registered for event type",
			"eventType", msg.EventType, "messageID", msg.ID)
		p.moveToDeadLetter(ctx, msg, fmt.Sprintf("no handler for event type %s", msg.EventType), "unknown_event_type")
		return
	}

	err := handler.Handle(ctx, msg)
	if err == nil {
		if err := p.outboxRepo.MarkAsCompleted(ctx, msg.ID); err != nil {
			p.logger.Error("Failed to mark message as completed", "error", err, "messageID", msg.ID)
		}
		return
	}

	p.logger.Warn("Outbox message dispatch failed",
		"error", err, "messageID", msg.ID,
		"eventType", msg.EventType, "attempts", attempts)

	if attempts >= p.config.MaxAttempts {
		p.moveToDeadLetter(ctx, msg, err.Error(), "max_attempts_exceeded")
		return
	}

	if err := p.outboxRepo.MarkAsPending(ctx, msg.ID, err.Error()); err != nil {
		p.logger.Error("Failed to requeue outbox message", "error", err, "messageID", msg.ID)
	}
}

func (p *Processor) moveToDeadLetter(ctx context.Context, msg *models.OutboxMessage, errorMsg, reason string) {
	if err := p.outboxRepo.MarkAsFailed(ctx, msg.ID, errorMsg); err != nil {
		p.logger.Error("Failed to mark message as failed", "error", err, "messageID", msg.ID)
		return
	}

	deadLetter := models.NewDeadLetterMessage(msg, errorMsg, reason)

	if err := p.deadLetterRepo.Create(ctx, deadLetter); err != nil {
		p.logger.Error("Failed to create dead letter message", "error", err, "messageID", msg.ID)
		return
	}

	p.logger.Warn("Outbox message moved to dead letter queue",
		"messageID", msg.ID, "eventType", msg.EventType, "reason", reason)
}
