package models

import (
	"fmt"
	"time"
)

// Order represents a customer purchase. It owns one or more order items,
// each of which moves through the department pipeline on its own.
type Order struct {
	ID           string     `db:"id" json:"id"`
	OrderNumber  string     `db:"order_number" json:"order_number"`
	CustomerRef  string     `db:"customer_ref" json:"customer_ref"`
	DeliveryDate *time.Time `db:"delivery_date" json:"delivery_date,omitempty"`
	IsCompleted  bool       `db:"is_completed" json:"is_completed"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`

	Items []*OrderItem `db:"-" json:"items,omitempty"`
}

// NewOrder creates a new order with a human-readable order number
// (e.g. WC-53529) derived from the given sequence value.
func NewOrder(customerRef string, deliveryDate *time.Time, sequence int64) *Order {
	now := GetCurrentTime()

	return &Order{
		ID:           GenerateID("ord"),
		OrderNumber:  fmt.Sprintf("WC-%05d", sequence),
		CustomerRef:  customerRef,
		DeliveryDate: deliveryDate,
		IsCompleted:  false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// EffectiveDeliveryDate returns the order-level delivery date when set,
// otherwise the item-level one.
func (o *Order) EffectiveDeliveryDate(item *OrderItem) *time.Time {
	if o.DeliveryDate != nil {
		return o.DeliveryDate
	}
	return item.DeliveryDate
}
