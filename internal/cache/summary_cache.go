// internal/cache/summary_cache.go
package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/kucukkal/dealer-backend/internal/models"
)

const summaryKey = "finance:summary"

// SummaryCache keeps the finance dashboard aggregates in Redis between
// snapshot rebuilds. A nil *SummaryCache is a valid no-op cache, so
// callers never need to branch on whether Redis is reachable.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSummaryCache(addr, password string, db int, ttl time.Duration) *SummaryCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &SummaryCache{client: client, ttl: ttl}
}

func (c *SummaryCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func (c *SummaryCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func (c *SummaryCache) Get(ctx context.Context) (*models.FinanceSummary, bool, error) {
	if c == nil {
		return nil, false, nil
	}

	val, err := c.client.Get(ctx, summaryKey).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var summary models.FinanceSummary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		return nil, false, err
	}
	return &summary, true, nil
}

func (c *SummaryCache) Set(ctx context.Context, summary *models.FinanceSummary) error {
	if c == nil || summary == nil {
		return nil
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey, payload, c.ttl).Err()
}

// Invalidate drops the cached summary. The snapshot builder calls this
// after every rebuild so readers never see pre-rebuild aggregates.
func (c *SummaryCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Del(ctx, summaryKey).Err()
}
