// FilePath: internal/repository/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gardenhub/server/hub/internal/config"
	"github.com/gardenhub/server/hub/internal/models"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

const latestKey = "garden:sensor:latest"

// RedisCache keeps the latest sensor snapshot in Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect opens and pings the Redis server in cfg.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error connecting to Redis: %w", err)
	}
	nuts.L.Infof("[Cache] Connected to Redis %s:%d/%d", cfg.Host, cfg.Port, cfg.DB)
	return client, nil
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// GetLatest returns the cached snapshot, or nil on a miss.
func (c *RedisCache) GetLatest(ctx context.Context) (*models.SensorSnapshot, error) {
	raw, err := c.client.Get(ctx, latestKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read latest snapshot: %w", err)
	}

	snapshot := &models.SensorSnapshot{}
	if err := json.Unmarshal(raw, snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode latest snapshot: %w", err)
	}
	return snapshot, nil
}

func (c *RedisCache) SetLatest(ctx context.Context, snapshot *models.SensorSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode latest snapshot: %w", err)
	}
	if err := c.client.Set(ctx, latestKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store latest snapshot: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
