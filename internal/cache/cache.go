// Package cache keeps the most recent reading per system in Redis so
// dashboards can show current temperatures without querying Postgres.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"pool-logger/internal/types"
)

// Stale systems fall out of the cache after a day without readings.
const latestTTL = 24 * time.Hour

type LatestCache struct {
	client *redis.Client
	logger *slog.Logger
}

func New(ctx context.Context, addr string, logger *slog.Logger) (*LatestCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &LatestCache{client: client, logger: logger}, nil
}

func (c *LatestCache) Name() string { return "cache" }

// Publish overwrites the latest-reading key for every system in the batch.
func (c *LatestCache) Publish(ctx context.Context, readings []types.Reading) error {
	for _, reading := range readings {
		payload, err := json.Marshal(reading)
		if err != nil {
			return fmt.Errorf("encode reading for %s: %w", reading.SystemID, err)
		}

		key := "pool:last:" + reading.SystemID
		if err := c.client.Set(ctx, key, payload, latestTTL).Err(); err != nil {
			return fmt.Errorf("cache reading for %s: %w", reading.SystemID, err)
		}
		c.logger.Debug("cached latest reading", "key", key)
	}
	return nil
}

func (c *LatestCache) Close() error {
	return c.client.Close()
}
