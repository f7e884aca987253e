package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputePriority(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	days := func(n int) *time.Time {
		d := now.AddDate(0, 0, n)
		return &d
	}

	tests := []struct {
		name         string
		deliveryDate *time.Time
		expected     Priority
	}{
		{
			name:         "no delivery date is blue",
			deliveryDate: nil,
			expected:     PriorityBlue,
		},
		{
			name:         "more than five days out is blue",
			deliveryDate: days(6),
			expected:     PriorityBlue,
		},
		{
			name:         "exactly five days is yellow",
			deliveryDate: days(5),
			expected:     PriorityYellow,
		},
		{
			name:         "exactly three days is yellow",
			deliveryDate: days(3),
			expected:     PriorityYellow,
		},
		{
			name:         "two days out is red",
			deliveryDate: days(2),
			expected:     PriorityRed,
		},
		{
			name:         "due today is red",
			deliveryDate: days(0),
			expected:     PriorityRed,
		},
		{
			name:         "overdue is red",
			deliveryDate: days(-4),
			expected:     PriorityRed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputePriority(tt.deliveryDate, now))
		})
	}
}

func TestComputePriorityIgnoresTimeOfDay(t *testing.T) {
	// 23:59 delivery vs 00:01 now on the same calendar day gap must
	// land in the same tier as midnight vs midnight
	now := time.Date(2026, 3, 10, 0, 1, 0, 0, time.UTC)
	delivery := time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, PriorityYellow, ComputePriority(&delivery, now))
}

func TestRecomputePriority(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, 1)

	item := NewOrderItem("ord-1", "Business Cards", true, false, &due)
	item.RecomputePriority(now)

	assert.Equal(t, PriorityRed, item.PriorityComputed)
}
