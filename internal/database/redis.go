// Package database owns the console's only datastore connection: Redis,
// which holds console sessions, itinerary draft snapshots and in-flight
// save locks. Business data lives in the REST backend.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tourbench/console/internal/config"
)

// NewRedis parses the configured URL, connects, and pings. Redis may still be
// starting when the console container launches, so the ping is retried a few
// times with a growing delay before giving up.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	const maxAttempts = 5
	backoff := 500 * time.Millisecond
	var pingErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr = client.Ping(ctx).Err()
		cancel()
		if pingErr == nil {
			return client, nil
		}
		if attempt == maxAttempts {
			break
		}
		slog.Warn("redis not ready, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.Any("error", pingErr),
		)
		time.Sleep(backoff)
		backoff = min(backoff*2, 8*time.Second)
	}

	client.Close()
	return nil, fmt.Errorf("pinging redis after %d attempts: %w", maxAttempts, pingErr)
}
