package models

import "time"

// Priority is the blue/yellow/red tier derived from days until delivery
type Priority string

const (
	PriorityBlue   Priority = "blue"
	PriorityYellow Priority = "yellow"
	PriorityRed    Priority = "red"
)

// ComputePriority maps a delivery date to a priority tier. The
// comparison is on calendar days with time of day stripped from both
// sides: more than 5 days out is blue, 3 to 5 days is yellow and
// anything closer (including overdue) is red. A missing delivery date
// is blue. The result is recomputed on every read and only cached for
// display.
func ComputePriority(deliveryDate *time.Time, now time.Time) Priority {
	if deliveryDate == nil {
		return PriorityBlue
	}

	delivery := truncateToDay(*deliveryDate)
	today := truncateToDay(now)

	daysUntil := int(delivery.Sub(today).Hours() / 24)

	switch {
	case daysUntil > 5:
		return PriorityBlue
	case daysUntil >= 3:
		return PriorityYellow
	default:
		return PriorityRed
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
