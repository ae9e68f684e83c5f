// Package priority derives the urgency bucket for an order item from its
// delivery date. Buckets are recomputed at read time and on every delivery
// date change; the stored value is a cache, never the authority.
package priority

import (
	"time"

	"github.com/pressroomhq/printdesk-backend/pkg/enums"
)

const (
	redMaxDays    = 2
	yellowMaxDays = 5
)

// Compute buckets a delivery date relative to now. Both sides are truncated
// to midnight so a same-day delivery compares as day zero. A nil delivery
// date always yields blue.
func Compute(deliveryDate *time.Time, now time.Time) enums.Priority {
	if deliveryDate == nil {
		return enums.PriorityBlue
	}

	days := daysUntil(*deliveryDate, now)
	switch {
	case days <= redMaxDays:
		return enums.PriorityRed
	case days <= yellowMaxDays:
		return enums.PriorityYellow
	default:
		return enums.PriorityBlue
	}
}

func daysUntil(deliveryDate, now time.Time) int {
	due := truncateToMidnight(deliveryDate.In(now.Location()))
	today := truncateToMidnight(now)
	return int(due.Sub(today).Hours() / 24)
}

func truncateToMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
