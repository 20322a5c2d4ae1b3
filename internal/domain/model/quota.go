package model

import "time"

// DailyMessageCount is the per-user per-day send counter. Exactly one row
// exists per (user, day); the postgres repo enforces this with a unique key
// and an idempotent upsert.
type DailyMessageCount struct {
	UserID string
	Day    time.Time
	Count  int
}

func (c *DailyMessageCount) ReachedLimit(limit int) bool {
	return c.Count >= limit
}

func (c *DailyMessageCount) Remaining(limit int) int {
	if r := limit - c.Count; r > 0 {
		return r
	}
	return 0
}

// Today returns the current calendar day in UTC, truncated to midnight.
// All quota rows are keyed on this value so one counter covers one day
// regardless of server timezone.
func Today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}
