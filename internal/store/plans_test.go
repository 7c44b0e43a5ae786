package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlanWindowFrom(t *testing.T) {
	tests := []struct {
		name    string
		months  int
		start   string
		wantEnd string
	}{
		{"monthly", 1, "2024-01-15", "2024-02-15"},
		{"quarterly", 3, "2024-01-01", "2024-04-01"},
		{"yearly", 12, "2024-03-10", "2025-03-10"},
		// AddDate normalizes Feb 30 forward into March
		{"quarterly across year end", 3, "2024-11-30", "2025-03-02"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start, err := time.Parse("2006-01-02", tc.start)
			assert.NoError(t, err)

			plan := Plan{ID: tc.name, DurationMonths: tc.months}
			gotStart, gotEnd := plan.WindowFrom(start)

			assert.Equal(t, start, gotStart)
			assert.Equal(t, tc.wantEnd, gotEnd.Format("2006-01-02"))
		})
	}
}
