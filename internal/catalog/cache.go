package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mpre5ley/tts-eval-platform/internal/models"
)

// FetchFunc retrieves the live voice catalog for one backend.
type FetchFunc func(ctx context.Context, provider string) []models.Voice

// Cache fronts live voice-catalog fetches with a redis TTL cache. A cache or
// codec failure falls through to the fetcher; the caller always gets a list.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	fetch  FetchFunc
	logger *slog.Logger
}

// NewCache wires a voice-catalog cache. A nil client disables caching and
// every lookup goes straight to the fetcher.
func NewCache(client *redis.Client, ttl time.Duration, fetch FetchFunc, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, ttl: ttl, fetch: fetch, logger: logger}
}

func cacheKey(provider string) string {
	return fmt.Sprintf("ttseval:voices:%s", provider)
}

// Voices returns the backend's catalog, from cache when fresh.
func (c *Cache) Voices(ctx context.Context, provider string) []models.Voice {
	if c.client == nil {
		return c.fetch(ctx, provider)
	}

	key := cacheKey(provider)
	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var voices []models.Voice
		if err := json.Unmarshal(raw, &voices); err == nil {
			return voices
		}
		c.logger.Warn("voice cache entry corrupt, refetching", "provider", provider)
	}

	voices := c.fetch(ctx, provider)
	if len(voices) > 0 {
		if raw, err := json.Marshal(voices); err == nil {
			if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				c.logger.Warn("voice cache store failed", "provider", provider, "error", err)
			}
		}
	}
	return voices
}

// Invalidate drops the cached catalog for one backend.
func (c *Cache) Invalidate(ctx context.Context, provider string) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, cacheKey(provider)).Err(); err != nil {
		return fmt.Errorf("invalidate voice cache: %w", err)
	}
	return nil
}
