package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const createSlotsTable = `CREATE TABLE IF NOT EXISTS save_slots (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStorage keeps slots in a single save_slots table.
type SQLiteStorage struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens (or creates) the database at path.
func NewSQLiteStorage(path string, logger *slog.Logger) (*SQLiteStorage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}

	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(createSlotsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create save_slots: %w", err)
	}
	return &SQLiteStorage{db: db, logger: logger}, nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStorage) SaveSlot(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO save_slots (key, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		s.logger.Error("Failed to save slot", "key", key, "error", err)
		return fmt.Errorf("failed to save slot: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) LoadSlot(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM save_slots WHERE key = ?`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.Error("Failed to load slot", "key", key, "error", err)
		return nil, fmt.Errorf("failed to load slot: %w", err)
	}
	return data, nil
}

func (s *SQLiteStorage) DeleteSlot(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM save_slots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	return nil
}
