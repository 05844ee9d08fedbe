package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type processedChecker interface {
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

// CachedProcessedStore fronts the relational store with a Redis set lookup,
// so the hot path of duplicate webhook deliveries skips the database. Redis
// being down degrades to the store alone; it never fails the check.
type CachedProcessedStore struct {
	store  processedChecker
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedProcessedStore(store processedChecker, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedProcessedStore {
	if store == nil {
		panic("events: processed store required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedProcessedStore{store: store, client: client, ttl: ttl, logger: logger}
}

func cacheKey(provider, eventID string) string {
	return fmt.Sprintf("processed:%s:%s", provider, eventID)
}

// AlreadyProcessed consults the cache first and falls through to the store.
func (c *CachedProcessedStore) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	if c.client != nil {
		n, err := c.client.Exists(ctx, cacheKey(provider, eventID)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			c.logger.Warn("processed cache lookup failed", "error", err)
		} else if n > 0 {
			return true, nil
		}
	}
	return c.store.AlreadyProcessed(ctx, provider, eventID)
}

// MarkProcessed writes through to both the store and the cache.
func (c *CachedProcessedStore) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	fresh, err := c.store.MarkProcessed(ctx, provider, eventID)
	if err != nil {
		return false, err
	}
	if c.client != nil {
		if err := c.client.Set(ctx, cacheKey(provider, eventID), "1", c.ttl).Err(); err != nil {
			c.logger.Warn("processed cache write failed", "error", err)
		}
	}
	return fresh, nil
}
