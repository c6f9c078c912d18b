package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// slotPrefix namespaces save slots in a shared Redis.
const slotPrefix = "save:"

// RedisStorage implements the Storage interface using Redis strings.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration // zero keeps slots forever
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. redisURL is either a
// redis:// URL or a bare host:port.
func NewRedisStorage(redisURL string, ttl time.Duration, logger *slog.Logger) (*RedisStorage, error) {
	opts := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RedisStorage{
		client: redis.NewClient(opts),
		logger: logger,
		ttl:    ttl,
	}, nil
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection pings Redis until it answers, up to maxRetries times.
// Open uses it for the redis backend.
func (r *RedisStorage) WaitForConnection(ctx context.Context, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		err := r.Ping(ctx)
		if err == nil {
			r.logger.Info("Redis connection established")
			return nil
		}
		r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
		case <-time.After(retryDelay):
		}
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Slot operations

func (r *RedisStorage) SaveSlot(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, slotPrefix+key, data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save slot", "key", key, "error", err)
		return fmt.Errorf("failed to save slot: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadSlot(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, slotPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("Slot not found", "key", key)
			return nil, nil
		}
		r.logger.Error("Failed to load slot", "key", key, "error", err)
		return nil, fmt.Errorf("failed to load slot: %w", err)
	}
	return data, nil
}

func (r *RedisStorage) DeleteSlot(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, slotPrefix+key).Err(); err != nil {
		r.logger.Error("Failed to delete slot", "key", key, "error", err)
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	return nil
}
