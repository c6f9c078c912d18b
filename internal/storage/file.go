package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
)

var slotKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileStorage keeps each slot as <dir>/<key>.json. Writes go to a temp file
// that is renamed into place, so a slot is always either old or new.
type FileStorage struct {
	dir    string
	logger *slog.Logger
}

var _ Storage = (*FileStorage)(nil)

// NewFileStorage creates dir if needed.
func NewFileStorage(dir string, logger *slog.Logger) (*FileStorage, error) {
	if dir == "" {
		dir = "./saves"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create save dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStorage{dir: dir, logger: logger}, nil
}

func (f *FileStorage) path(key string) (string, error) {
	if !slotKeyPattern.MatchString(key) {
		return "", fmt.Errorf("invalid slot key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

func (f *FileStorage) Ping(ctx context.Context) error {
	info, err := os.Stat(f.dir)
	if err != nil {
		return fmt.Errorf("save dir unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("save dir %s is not a directory", f.dir)
	}
	return nil
}

func (f *FileStorage) Close() error {
	return nil
}

func (f *FileStorage) SaveSlot(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := f.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to save slot: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to save slot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save slot: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		f.logger.Error("Failed to save slot", "key", key, "error", err)
		return fmt.Errorf("failed to save slot: %w", err)
	}
	return nil
}

func (f *FileStorage) LoadSlot(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := f.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		f.logger.Error("Failed to load slot", "key", key, "error", err)
		return nil, fmt.Errorf("failed to load slot: %w", err)
	}
	return data, nil
}

func (f *FileStorage) DeleteSlot(ctx context.Context, key string) error {
	target, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	return nil
}
