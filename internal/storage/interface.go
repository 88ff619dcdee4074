package storage

import "errors"

var (
	// ErrNotFound is returned by Get when the key has never been written.
	ErrNotFound = errors.New("key not found")
	// ErrNotLoaded is returned when a provider is used before Init or Load.
	ErrNotLoaded = errors.New("storage not loaded")
)

// Provider is a small key-value store. Values are opaque JSON documents;
// the habit store owns their shape.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Get returns the value stored under key or ErrNotFound.
	Get(key string) ([]byte, error)
	// PutBatch writes every entry or none of them.
	PutBatch(entries map[string][]byte) error

	// Utils
	GetConfigPath() string
}
