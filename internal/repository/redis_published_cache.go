package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chatform-server/internal/interfaces"
	"chatform-server/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const publishedConfigKeyPrefix = "published_config:"

// Published configs are re-cached on every publish, the TTL only bounds
// staleness after a manual DB edit.
const publishedConfigTTL = 24 * time.Hour

var _ interfaces.PublishedCache = (*redisPublishedCache)(nil)

type cachedPublishedConfig struct {
	Version int             `json:"version"`
	Config  json.RawMessage `json:"config"`
}

type redisPublishedCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPublishedCache creates a Redis-backed cache of published configs.
func NewRedisPublishedCache(client *redis.Client, logger *zap.Logger) interfaces.PublishedCache {
	return &redisPublishedCache{
		client: client,
		logger: logger.Named("RedisPublishedCache"),
	}
}

func (c *redisPublishedCache) SetPublishedConfig(ctx context.Context, slug string, config json.RawMessage, version int) error {
	key := publishedConfigKeyPrefix + slug
	payload, err := json.Marshal(cachedPublishedConfig{Version: version, Config: config})
	if err != nil {
		return fmt.Errorf("failed to marshal cached config: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, publishedConfigTTL).Err(); err != nil {
		c.logger.Error("Failed to cache published config", zap.String("slug", slug), zap.Error(err))
		return fmt.Errorf("failed to cache published config for %q: %w", slug, err)
	}
	c.logger.Debug("Cached published config", zap.String("slug", slug), zap.Int("version", version))
	return nil
}

func (c *redisPublishedCache) GetPublishedConfig(ctx context.Context, slug string) (json.RawMessage, error) {
	key := publishedConfigKeyPrefix + slug
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		c.logger.Error("Failed to read published config from cache", zap.String("slug", slug), zap.Error(err))
		return nil, fmt.Errorf("failed to read cached config for %q: %w", slug, err)
	}
	var cached cachedPublishedConfig
	if err := json.Unmarshal(payload, &cached); err != nil {
		c.logger.Warn("Corrupt cached published config, treating as miss", zap.String("slug", slug), zap.Error(err))
		return nil, models.ErrNotFound
	}
	return cached.Config, nil
}
