// Package persistence snapshots the game state into a storage slot and
// restores it. Saving is best effort: failures are logged, never returned to
// the game loop.
package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jwebster45206/scene-engine/internal/storage"
	"github.com/jwebster45206/scene-engine/pkg/state"
)

// DefaultKey is the slot name used when none is configured.
const DefaultKey = "gameState"

const writeTimeout = 5 * time.Second

// Adapter saves and loads one slot. SaveAsync hands snapshots to a background
// worker that only ever keeps the newest one, so a slow backend delays saves
// but never the game.
type Adapter struct {
	store  storage.Storage
	key    string
	logger *slog.Logger

	pending chan queued // latest unsaved snapshot, capacity 1

	// writeMu serializes slot writes with Clear. Snapshots queued before the
	// last Clear carry an older epoch and are dropped.
	writeMu sync.Mutex
	epoch   atomic.Uint64

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	closed  bool
	running bool
}

type queued struct {
	snap  state.Snapshot
	epoch uint64
}

// New creates an adapter for the slot key in store.
func New(store storage.Storage, key string, logger *slog.Logger) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		store:   store,
		key:     key,
		logger:  logger.With("slot", key),
		pending: make(chan queued, 1),
	}
}

// Start launches the background save worker. It stops when ctx is cancelled
// or Close is called. Calling Start twice is a no-op.
func (a *Adapter) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running || a.closed {
		return
	}

	ctx, a.cancel = context.WithCancel(ctx)
	a.done = make(chan struct{})
	a.running = true

	go a.run(ctx, a.done)
}

func (a *Adapter) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	a.logger.Debug("Save worker starting")

	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("Save worker shutting down")
			return
		case q := <-a.pending:
			a.write(q)
		}
	}
}

// Save writes snap synchronously.
func (a *Adapter) Save(ctx context.Context, snap state.Snapshot) error {
	data, err := snap.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := a.store.SaveSlot(ctx, a.key, data); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// SaveAsync queues snap for the worker and returns immediately. An older
// snapshot still waiting is replaced.
func (a *Adapter) SaveAsync(snap state.Snapshot) {
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		a.logger.Debug("Adapter closed, dropping snapshot", "scene", snap.CurrentScene)
		return
	}

	q := queued{snap: snap, epoch: a.epoch.Load()}
	for {
		select {
		case a.pending <- q:
			return
		default:
		}
		// Full: drop the stale snapshot and retry.
		select {
		case <-a.pending:
		default:
		}
	}
}

func (a *Adapter) write(q queued) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	snap := q.snap
	if q.epoch != a.epoch.Load() {
		a.logger.Debug("Dropping snapshot queued before clear", "scene", snap.CurrentScene)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := a.Save(ctx, snap); err != nil {
		a.logger.Warn("Save failed", "error", err, "scene", snap.CurrentScene)
		return
	}
	a.logger.Debug("Game saved", "scene", snap.CurrentScene, "health", snap.Health)
}

// Load reads the slot. It returns false when there is nothing usable to
// resume: the slot is absent or the backend failed. A payload that is
// present but damaged still loads, with every bad field reset to its default.
func (a *Adapter) Load(ctx context.Context) (*state.Snapshot, bool) {
	data, err := a.store.LoadSlot(ctx, a.key)
	if err != nil {
		a.logger.Warn("Failed to load save, starting fresh", "error", err)
		return nil, false
	}
	if data == nil {
		a.logger.Debug("No save found")
		return nil, false
	}

	snap, defaulted := state.RestoreJSON(data)
	if len(defaulted) > 0 {
		a.logger.Warn("Save partially unreadable, using defaults", "fields", defaulted)
	}
	return &snap, true
}

// Clear deletes the slot. It waits for a write already in progress, and
// snapshots queued before it are never written.
func (a *Adapter) Clear(ctx context.Context) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	a.epoch.Add(1)
	select {
	case <-a.pending:
	default:
	}
	if err := a.store.DeleteSlot(ctx, a.key); err != nil {
		return fmt.Errorf("failed to clear save: %w", err)
	}
	return nil
}

// Close stops the worker and writes any snapshot it had not got to yet.
// SaveAsync calls after Close are dropped.
func (a *Adapter) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	cancel, done := a.cancel, a.done
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	select {
	case q := <-a.pending:
		a.write(q)
	default:
	}
}
