package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// QuotaCache caches the remaining-messages figure on the reporting path.
// Entries expire at local midnight UTC since the counter resets per calendar
// day; Invalidate is called after every increment so readers never see a
// stale remaining count for longer than one round trip.
type QuotaCache struct {
	client RedisClient
}

func NewQuotaCache(client RedisClient) *QuotaCache {
	return &QuotaCache{client: client}
}

func key(userID string, day time.Time) string {
	return fmt.Sprintf("quota_remaining:%s:%s", userID, day.Format("2006-01-02"))
}

func (c *QuotaCache) Get(ctx context.Context, userID string, day time.Time) (int, bool) {
	v, err := c.client.Get(ctx, key(userID, day))
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *QuotaCache) Set(ctx context.Context, userID string, day time.Time, remaining int) error {
	ttl := time.Until(day.Add(24 * time.Hour))
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, key(userID, day), strconv.Itoa(remaining), ttl)
}

func (c *QuotaCache) Invalidate(ctx context.Context, userID string, day time.Time) error {
	return c.client.Del(ctx, key(userID, day))
}
