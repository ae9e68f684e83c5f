package priority

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pressroomhq/printdesk-backend/pkg/enums"
)

func TestComputeBuckets(t *testing.T) {
	now := time.Date(2026, time.January, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		daysOut int
		want    enums.Priority
	}{
		{"same day", 0, enums.PriorityRed},
		{"tomorrow", 1, enums.PriorityRed},
		{"two days out", 2, enums.PriorityRed},
		{"three days out", 3, enums.PriorityYellow},
		{"five days out", 5, enums.PriorityYellow},
		{"six days out", 6, enums.PriorityBlue},
		{"far future", 30, enums.PriorityBlue},
		{"overdue", -4, enums.PriorityRed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			due := now.AddDate(0, 0, tc.daysOut)
			assert.Equal(t, tc.want, Compute(&due, now))
		})
	}
}

func TestComputeNilDateIsBlue(t *testing.T) {
	assert.Equal(t, enums.PriorityBlue, Compute(nil, time.Now()))
}

func TestComputeTruncatesToMidnight(t *testing.T) {
	// 23:59 now against 00:01 two calendar days later is still two whole
	// days apart once both sides are truncated.
	now := time.Date(2026, time.January, 10, 23, 59, 0, 0, time.UTC)
	due := time.Date(2026, time.January, 12, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, enums.PriorityRed, Compute(&due, now))
}
