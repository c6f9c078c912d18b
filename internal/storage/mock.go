package storage

import (
	"context"
	"sync"
)

// MockStorage is an in-memory Storage. It backs the "memory" save backend and
// lets tests inject failures.
type MockStorage struct {
	mu        sync.RWMutex
	slots     map[string][]byte
	pingError error
	saveError error
	loadError error
	saves     int
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		slots: make(map[string][]byte),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError makes SaveSlot fail with err; nil restores normal behaviour
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SetLoadError makes LoadSlot fail with err; nil restores normal behaviour
func (m *MockStorage) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadError = err
}

// Put stores raw data, bypassing injected errors (for testing)
func (m *MockStorage) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = append([]byte(nil), data...)
}

// Get returns raw slot data (for testing)
func (m *MockStorage) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.slots[key]
	return data, ok
}

// Saves counts successful SaveSlot calls
func (m *MockStorage) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveSlot mocks saving a slot
func (m *MockStorage) SaveSlot(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.slots[key] = append([]byte(nil), data...)
	m.saves++
	return nil
}

// LoadSlot mocks loading a slot
func (m *MockStorage) LoadSlot(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loadError != nil {
		return nil, m.loadError
	}
	data, exists := m.slots[key]
	if !exists {
		return nil, nil // Return nil for not found
	}
	return append([]byte(nil), data...), nil
}

// DeleteSlot mocks deleting a slot
func (m *MockStorage) DeleteSlot(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, key)
	return nil
}
