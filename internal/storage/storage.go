// Package storage keeps save slots: opaque blobs addressed by a key. The
// persistence layer decides what goes in them.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/scene-engine/internal/config"
)

// HealthChecker defines basic health check capabilities
type HealthChecker interface {
	// Ping tests the backend connection
	Ping(ctx context.Context) error
}

// Closer defines cleanup capabilities
type Closer interface {
	// Close releases the backend
	Close() error
}

// Storage defines the interface for save slot persistence
type Storage interface {
	HealthChecker
	Closer

	// SaveSlot writes data under key, replacing whatever was there
	SaveSlot(ctx context.Context, key string, data []byte) error

	// LoadSlot reads the data under key.
	// Returns nil, nil if the slot doesn't exist
	LoadSlot(ctx context.Context, key string) ([]byte, error)

	// DeleteSlot removes the slot. Deleting a missing slot is not an error.
	DeleteSlot(ctx context.Context, key string) error
}

// Open creates the backend named by cfg.SaveBackend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.SaveBackend {
	case config.BackendFile:
		return NewFileStorage(cfg.SaveDir, logger)
	case config.BackendSQLite:
		return NewSQLiteStorage(cfg.SQLitePath, logger)
	case config.BackendMemory:
		return NewMockStorage(), nil
	case config.BackendRedis:
		rs, err := NewRedisStorage(cfg.RedisURL, cfg.SaveTTL, logger)
		if err != nil {
			return nil, err
		}
		if err := rs.WaitForConnection(ctx, max(1, cfg.RedisRetries), cfg.RedisRetryDelay); err != nil {
			_ = rs.Close()
			return nil, err
		}
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown save backend %q", cfg.SaveBackend)
	}
}
