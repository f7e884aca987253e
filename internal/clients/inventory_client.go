package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/printcraft/order-workflow-api/internal/models"
	"github.com/printcraft/order-workflow-api/pkg/circuitbreaker"
	apperrors "github.com/printcraft/order-workflow-api/pkg/errors"
	"github.com/printcraft/order-workflow-api/pkg/logger"
	"github.com/printcraft/order-workflow-api/pkg/retry"
)

// InventoryClient talks to the inventory service to reserve material
// for production runs. Calls are best-effort: retried with backoff and
// protected by a circuit breaker so a down inventory service never
// blocks the workflow.
type InventoryClient struct {
	baseURL     string
	httpClient  *http.Client
	breaker     *circuitbreaker.CircuitBreaker
	retryConfig *retry.RetryConfig
	logger      logger.Logger
}

// NewInventoryClient creates a new InventoryClient
func NewInventoryClient(baseURL string, logger logger.Logger) *InventoryClient {
	return &InventoryClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		breaker: circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			HalfOpenMaxCalls: 2,
		}),
		retryConfig: &retry.RetryConfig{
			MaxAttempts:     3,
			BackoffStrategy: retry.NewDefaultExponentialBackoff(),
			Logger:          logger,
			RetryableErrors: []error{apperrors.ErrTemporaryFailure, apperrors.ErrTimeout},
		},
		logger: logger,
	}
}

// ReserveMaterial asks the inventory service to hold material for an
// item's production run
func (c *InventoryClient) ReserveMaterial(ctx context.Context, reservation models.MaterialReservationData) error {
	if !c.breaker.Allow() {
		c.logger.Warn("Inventory circuit breaker open, rejecting reservation",
			"itemID", reservation.ItemID, "material", reservation.Material)
		return apperrors.NewTemporaryError("inventory service unavailable")
	}

	body, err := json.Marshal(reservation)
	if err != nil {
		return fmt.Errorf("failed to marshal reservation: %w", err)
	}

	err = retry.Retry(ctx, func() error {
		return c.doReserve(ctx, body)
	}, c.retryConfig)

	if err != nil {
		c.breaker.Failure()
		return err
	}

	c.breaker.Success()
	return nil
}

func (c *InventoryClient) doReserve(ctx context.Context, body []byte) error {
	url := fmt.Sprintf("%s/api/v1/reservations", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create reservation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewTemporaryError(fmt.Sprintf("inventory request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return apperrors.NewTemporaryError(
			fmt.Sprintf("inventory service returned %d: %s", resp.StatusCode, respBody))
	}

	// 4xx responses are not retryable; the reservation itself is bad
	return apperrors.NewInvalidInputError(
		fmt.Sprintf("inventory rejected reservation with %d: %s", resp.StatusCode, respBody))
}
