package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type document struct {
	Version int                        `json:"version"`
	Entries map[string]json.RawMessage `json:"entries"`
}

// JSONStore keeps every key in one JSON file. Writes go to a temp file that
// is renamed over the original, so a batch lands whole or not at all. The
// file is read again whenever another process has replaced it.
type JSONStore struct {
	path string
	mu   sync.Mutex
	doc  *document
	seen os.FileInfo
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
	}
}

func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = &document{Version: 1, Entries: make(map[string]json.RawMessage)}
	return s.save(s.doc)
}

func (s *JSONStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// read replaces the cached document with the file. The caller holds s.mu.
func (s *JSONStore) read() error {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'habitflow init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read storage: %w", err)
	}

	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if doc.Entries == nil {
		doc.Entries = make(map[string]json.RawMessage)
	}
	s.doc, s.seen = doc, info
	return nil
}

// refresh re-reads the file when it changed since the last read or write.
// The caller holds s.mu.
func (s *JSONStore) refresh() error {
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("failed to read storage: %w", err)
	}
	// Every save renames a new file into place, so the file identity
	// changes along with the contents.
	if s.seen != nil && os.SameFile(info, s.seen) && info.ModTime().Equal(s.seen.ModTime()) && info.Size() == s.seen.Size() {
		return nil
	}
	return s.read()
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) save(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if info, err := os.Stat(s.path); err == nil {
		s.seen = info
	}
	return nil
}

func (s *JSONStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil, ErrNotLoaded
	}
	if err := s.refresh(); err != nil {
		return nil, err
	}
	v, ok := s.doc.Entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *JSONStore) PutBatch(entries map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ErrNotLoaded
	}
	if err := s.refresh(); err != nil {
		return err
	}

	next := &document{Version: s.doc.Version, Entries: make(map[string]json.RawMessage, len(s.doc.Entries)+len(entries))}
	for k, v := range s.doc.Entries {
		next.Entries[k] = v
	}
	for k, v := range entries {
		if !json.Valid(v) {
			return fmt.Errorf("value for %s is not valid JSON", k)
		}
		next.Entries[k] = append(json.RawMessage(nil), v...)
	}

	if err := s.save(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}
