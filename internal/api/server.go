package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/printcraft/order-workflow-api/internal/catalog"
	"github.com/printcraft/order-workflow-api/internal/clients"
	"github.com/printcraft/order-workflow-api/internal/config"
	"github.com/printcraft/order-workflow-api/internal/database"
	"github.com/printcraft/order-workflow-api/internal/handlers"
	"github.com/printcraft/order-workflow-api/internal/models"
	"github.com/printcraft/order-workflow-api/internal/notifications"
	"github.com/printcraft/order-workflow-api/internal/repository"
	"github.com/printcraft/order-workflow-api/internal/service"
	"github.com/printcraft/order-workflow-api/pkg/kafka"
	"github.com/printcraft/order-workflow-api/pkg/logger"
	"github.com/printcraft/order-workflow-api/pkg/middleware"
)

// Server wires the HTTP API, the outbox processors and the Kafka
// consumer into one unit with a shared lifecycle
type Server struct {
	config              *config.Config
	logger              logger.Logger
	router              *mux.Router
	httpServer          *http.Server
	db                  *database.Database
	orderService        *service.OrderService
	workflowService     *service.WorkflowService
	catalogService      *catalog.Service
	deadLetterRepo      *repository.DeadLetterRepository
	producer            *kafka.Producer
	consumer            *kafka.Consumer
	outboxProcessor     *notifications.Processor
	deadLetterProcessor *notifications.DeadLetterProcessor
	rateLimiter         *middleware.RateLimiterMiddleware
	cancelBackground    context.CancelFunc
}

// NewServer builds the full application graph
func NewServer(cfg *config.Config, log logger.Logger) (*Server, error) {
	db, err := database.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	orderRepo := repository.NewOrderRepository(db, log)
	itemRepo := repository.NewItemRepository(db, log)
	timelineRepo := repository.NewTimelineRepository(db, log)
	settingsRepo := repository.NewSettingsRepository(db, log)
	outboxRepo := repository.NewOutboxRepository(db, log)
	deadLetterRepo := repository.NewDeadLetterRepository(db, log)

	catalogService := catalog.NewService(settingsRepo, log)
	orderService := service.NewOrderService(db, orderRepo, itemRepo, timelineRepo, log)
	workflowService := service.NewWorkflowService(db, itemRepo, timelineRepo, outboxRepo, catalogService, log)

	producer, err := kafka.NewProducer(cfg.Kafka.Brokers, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	consumer, err := kafka.NewConsumer(&kafka.ConsumerConfig{
		Brokers:       cfg.Kafka.Brokers,
		Topics:        []string{cfg.Kafka.EventsTopic},
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}
	consumer.RegisterHandler(cfg.Kafka.EventsTopic, handlers.NewWorkflowEventsHandler(log))

	inventoryClient := clients.NewInventoryClient(cfg.Inventory.BaseURL, log)

	eventsHandler := notifications.NewKafkaHandler(producer, cfg.Kafka.EventsTopic, log)
	notifyHandler := notifications.NewKafkaHandler(producer, cfg.Kafka.NotificationsTopic, log)
	inventoryHandler := notifications.NewInventoryHandler(inventoryClient, log)

	outboxProcessor := notifications.NewProcessor(
		outboxRepo, deadLetterRepo, notifications.DefaultProcessorConfig(), log)
	outboxProcessor.RegisterHandler(models.EventItemTransitioned, eventsHandler)
	outboxProcessor.RegisterHandler(models.EventNotifyUser, notifyHandler)
	outboxProcessor.RegisterHandler(models.EventReserveMaterial, inventoryHandler)

	deadLetterProcessor := notifications.NewDeadLetterProcessor(
		deadLetterRepo, notifications.DefaultDeadLetterProcessorConfig(), log)
	deadLetterProcessor.RegisterHandler(models.EventItemTransitioned, eventsHandler)
	deadLetterProcessor.RegisterHandler(models.EventNotifyUser, notifyHandler)
	deadLetterProcessor.RegisterHandler(models.EventReserveMaterial, inventoryHandler)

	rateLimiter := middleware.NewRateLimiterMiddleware(&middleware.RateLimiterConfig{
		GlobalMaxTokens:   cfg.RateLimit.GlobalMaxTokens,
		GlobalRefillRate:  cfg.RateLimit.GlobalRefillRate,
		ClientMaxTokens:   cfg.RateLimit.ClientMaxTokens,
		ClientRefillRate:  cfg.RateLimit.ClientRefillRate,
		ClientMaxIdle:     10 * time.Minute,
		TrustForwardedFor: cfg.Env != "production",
	}, log)

	s := &Server{
		config:              cfg,
		logger:              log,
		router:              mux.NewRouter(),
		db:                  db,
		orderService:        orderService,
		workflowService:     workflowService,
		catalogService:      catalogService,
		deadLetterRepo:      deadLetterRepo,
		producer:            producer,
		consumer:            consumer,
		outboxProcessor:     outboxProcessor,
		deadLetterProcessor: deadLetterProcessor,
		rateLimiter:         rateLimiter,
	}

	s.routes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) routes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.rateLimiter.Middleware)

	s.router.HandleFunc("/health", s.healthCheckHandler).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Orders
	api.HandleFunc("/orders", s.createOrderHandler).Methods(http.MethodPost)
	api.HandleFunc("/orders", s.listOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", s.getOrderHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/complete", s.completeOrderHandler).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}", s.deleteOrderHandler).Methods(http.MethodDelete)

	// Public tracking feed, no internal fields
	api.HandleFunc("/track/{number}", s.trackOrderHandler).Methods(http.MethodGet)

	// Items and workflow
	api.HandleFunc("/items/{id}", s.getItemHandler).Methods(http.MethodGet)
	api.HandleFunc("/items/{id}/actions", s.availableActionsHandler).Methods(http.MethodGet)
	api.HandleFunc("/items/{id}/actions/{action}", s.performActionHandler).Methods(http.MethodPost)
	api.HandleFunc("/items/{id}/override", s.adminOverrideHandler).Methods(http.MethodPost)
	api.HandleFunc("/items/{id}/timeline", s.itemTimelineHandler).Methods(http.MethodGet)
	api.HandleFunc("/timeline/{entryID}", s.removeTimelineEntryHandler).Methods(http.MethodDelete)

	// Department work queues
	api.HandleFunc("/departments/{department}/items", s.departmentItemsHandler).Methods(http.MethodGet)

	// Production stage catalog
	api.HandleFunc("/production-stages", s.listStagesHandler).Methods(http.MethodGet)
	api.HandleFunc("/production-stages", s.addStageHandler).Methods(http.MethodPost)
	api.HandleFunc("/production-stages", s.replaceStagesHandler).Methods(http.MethodPut)
	api.HandleFunc("/production-stages/{key}", s.removeStageHandler).Methods(http.MethodDelete)

	// Dead letter queue operations
	api.HandleFunc("/dead-letters", s.listDeadLettersHandler).Methods(http.MethodGet)
	api.HandleFunc("/dead-letters/{id}/retry", s.retryDeadLetterHandler).Methods(http.MethodPost)
	api.HandleFunc("/dead-letters/{id}/discard", s.discardDeadLetterHandler).Methods(http.MethodPost)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

// Start launches the background processors, the Kafka consumer and the
// HTTP listener. Blocks until the listener stops.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelBackground = cancel

	s.outboxProcessor.Start(ctx)
	s.deadLetterProcessor.Start(ctx)

	if err := s.consumer.Start(); err != nil {
		cancel()
		return fmt.Errorf("failed to start Kafka consumer: %w", err)
	}

	s.logger.Info("Server starting", "port", s.config.Port, "env", s.config.Env)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown stops the listener and the background components in order:
// no new requests, then no new side-effect dispatches, then close the
// shared connections
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Server shutting down")

	err := s.httpServer.Shutdown(ctx)

	if s.cancelBackground != nil {
		s.cancelBackground()
	}

	s.outboxProcessor.Stop()
	s.deadLetterProcessor.Stop()

	if stopErr := s.consumer.Stop(); stopErr != nil {
		s.logger.Error("Failed to stop Kafka consumer", "error", stopErr)
	}

	if closeErr := s.producer.Close(); closeErr != nil {
		s.logger.Error("Failed to close Kafka producer", "error", closeErr)
	}

	s.rateLimiter.Stop()

	if closeErr := s.db.Close(); closeErr != nil {
		s.logger.Error("Failed to close database", "error", closeErr)
	}

	return err
}
