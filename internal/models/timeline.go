package models

import "time"

// TimelineEntry is one append-only audit record for an order item.
// Entries are never mutated after the fact; chat-style entries may be
// soft-deleted. The timeline is the only durable history of workflow
// transitions since the item's own fields are overwritten in place.
type TimelineEntry struct {
	ID              int64      `db:"id" json:"id"`
	OrderID         string     `db:"order_id" json:"order_id"`
	ItemID          string     `db:"item_id" json:"item_id"`
	Stage           Stage      `db:"stage" json:"stage"`
	Action          string     `db:"action" json:"action"`
	PerformedBy     string     `db:"performed_by" json:"performed_by"`
	PerformedByName string     `db:"performed_by_name" json:"performed_by_name"`
	Notes           string     `db:"notes" json:"notes"`
	IsPublic        bool       `db:"is_public" json:"is_public"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	DeletedAt       *time.Time `db:"deleted_at" json:"-"`
}

// NewTimelineEntry creates a timeline entry for a workflow action.
// Public entries appear on the customer-facing tracking surface.
func NewTimelineEntry(orderID, itemID string, stage Stage, action, performedBy, performedByName, notes string, isPublic bool, at time.Time) *TimelineEntry {
	return &TimelineEntry{
		OrderID:         orderID,
		ItemID:          itemID,
		Stage:           stage,
		Action:          action,
		PerformedBy:     performedBy,
		PerformedByName: performedByName,
		Notes:           notes,
		IsPublic:        isPublic,
		CreatedAt:       at,
	}
}
