package storage

import (
	"errors"
	"sync"
)

// ErrInjected is the failure MemoryStore returns while FailWrites is set.
var ErrInjected = errors.New("injected write failure")

// MemoryStore is a Provider that never touches disk. It backs tests and
// the --dry-run paths of the CLI.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	loaded  bool

	// FailWrites makes the next N PutBatch calls fail with ErrInjected.
	FailWrites int
	// Writes counts successful PutBatch calls.
	Writes int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (m *MemoryStore) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = true
	return nil
}

func (m *MemoryStore) Load() error {
	return m.Init()
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return nil, ErrNotLoaded
	}
	v, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) PutBatch(entries map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return ErrNotLoaded
	}
	if m.FailWrites > 0 {
		m.FailWrites--
		return ErrInjected
	}
	for k, v := range entries {
		m.entries[k] = append([]byte(nil), v...)
	}
	m.Writes++
	return nil
}

// Set writes a single raw value, bypassing failure injection. Tests use it
// to plant legacy or corrupt snapshots.
func (m *MemoryStore) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = append([]byte(nil), value...)
}

func (m *MemoryStore) GetConfigPath() string {
	return ":memory:"
}
