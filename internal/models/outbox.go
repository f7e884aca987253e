package models

import (
	"encoding/json"
	"time"
)

// OutboxStatus represents the status of an outbox message
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusCompleted  OutboxStatus = "completed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// Event types written to the outbox. Side-effect dispatch is
// best-effort and independently retried; it never rolls back the state
// transition that produced it.
const (
	EventItemTransitioned = "item_transitioned"
	EventNotifyUser       = "notify_user"
	EventReserveMaterial  = "reserve_material"
)

// OutboxMessage is a pending side-effect instruction persisted in the
// same transaction as the state change that produced it
type OutboxMessage struct {
	ID                 int64        `db:"id" json:"id"`
	AggregateType      string       `db:"aggregate_type" json:"aggregate_type"`
	AggregateID        string       `db:"aggregate_id" json:"aggregate_id"`
	EventType          string       `db:"event_type" json:"event_type"`
	Payload            []byte       `db:"payload" json:"payload"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	ProcessedAt        *time.Time   `db:"processed_at" json:"processed_at,omitempty"`
	ProcessingAttempts int          `db:"processing_attempts" json:"processing_attempts"`
	LastError          *string      `db:"last_error" json:"last_error,omitempty"`
	Status             OutboxStatus `db:"status" json:"status"`
}

// OutboxMessageEvent is the envelope serialized into the payload column
type OutboxMessageEvent struct {
	EventType   string      `json:"event_type"`
	EventID     string      `json:"event_id"`
	AggregateID string      `json:"aggregate_id"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Data        interface{} `json:"data"`
}

// ItemTransitionedData describes a committed workflow transition
type ItemTransitionedData struct {
	OrderID   string `json:"order_id"`
	ItemID    string `json:"item_id"`
	Action    string `json:"action"`
	FromStage Stage  `json:"from_stage"`
	ToStage   Stage  `json:"to_stage"`
	Status    Status `json:"status"`
	Actor     string `json:"actor"`
	ActorName string `json:"actor_name"`
}

// NotificationData is the payload for a user notification
type NotificationData struct {
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
	OrderID string `json:"order_id"`
	ItemID  string `json:"item_id"`
}

// MaterialReservationData asks the inventory service to hold material
// for a production run
type MaterialReservationData struct {
	OrderID  string `json:"order_id"`
	ItemID   string `json:"item_id"`
	Material string `json:"material"`
	Quantity int    `json:"quantity"`
}

func newOutboxMessage(eventType, aggregateID string, data interface{}) (*OutboxMessage, error) {
	event := OutboxMessageEvent{
		EventType:   eventType,
		EventID:     GenerateID("evt"),
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
		Data:        data,
	}

	payload, err := json.Marshal(event)

	if err != nil {
		return nil, err
	}

	return &OutboxMessage{
		AggregateType:      "order_item",
		AggregateID:        aggregateID,
		EventType:          eventType,
		Payload:            payload,
		CreatedAt:          time.Now().UTC(),
		ProcessingAttempts: 0,
		Status:             OutboxStatusPending,
	}, nil
}

// NewItemTransitionedEvent creates an outbox message recording a
// committed workflow transition
func NewItemTransitionedEvent(data ItemTransitionedData) (*OutboxMessage, error) {
	return newOutboxMessage(EventItemTransitioned, data.ItemID, data)
}

// NewNotifyUserEvent creates an outbox message instructing the
// notification sink to fire a user notification
func NewNotifyUserEvent(data NotificationData) (*OutboxMessage, error) {
	return newOutboxMessage(EventNotifyUser, data.ItemID, data)
}

// NewReserveMaterialEvent creates an outbox message instructing the
// inventory service to reserve material
func NewReserveMaterialEvent(data MaterialReservationData) (*OutboxMessage, error) {
	return newOutboxMessage(EventReserveMaterial, data.ItemID, data)
}
