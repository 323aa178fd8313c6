package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("availability cache miss")

// AvailabilityCache caches resolved per-day availability. Schedules are
// read-mostly, so a short TTL plus delete-on-write keeps the read path off
// Postgres without any coordination. The cache is strictly advisory: the
// commit path never reads it.
type AvailabilityCache interface {
	Get(ctx context.Context, instructorID uuid.UUID, date string, dest any) error
	Set(ctx context.Context, instructorID uuid.UUID, date string, value any) error
	Invalidate(ctx context.Context, instructorID uuid.UUID) error
}

type redisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAvailabilityCache(client *redis.Client, ttl time.Duration) AvailabilityCache {
	return &redisAvailabilityCache{
		client: client,
		ttl:    ttl,
	}
}

func cacheKey(instructorID uuid.UUID, date string) string {
	return fmt.Sprintf("avail:%s:%s", instructorID.String(), date)
}

func (c *redisAvailabilityCache) Get(ctx context.Context, instructorID uuid.UUID, date string, dest any) error {
	data, err := c.client.Get(ctx, cacheKey(instructorID, date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("cache get: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache decode: %w", err)
	}
	return nil
}

func (c *redisAvailabilityCache) Set(ctx context.Context, instructorID uuid.UUID, date string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(instructorID, date), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops every cached day for the instructor. Called after any
// schedule rule, time-off or override write.
func (c *redisAvailabilityCache) Invalidate(ctx context.Context, instructorID uuid.UUID) error {
	pattern := fmt.Sprintf("avail:%s:*", instructorID.String())

	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache invalidate: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan: %w", err)
	}
	return nil
}
