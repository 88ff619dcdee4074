// Package badger is an embedded key-value Provider on dgraph-io/badger.
// Badger holds an exclusive lock on its directory, so only one habitflow
// process can have the store open at a time.
package badger

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/storage"
)

// Prefix marks a store value as a badger directory: "badger:<dir>".
const Prefix = "badger:"

type Store struct {
	dir      string
	inMemory bool
	db       *badgerdb.DB
}

var _ storage.Provider = (*Store)(nil)

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// NewInMemory returns a store that keeps nothing after Close.
func NewInMemory() *Store {
	return &Store{inMemory: true}
}

// badgerLogger routes badger's internal logging to the habitflow log.
type badgerLogger struct {
	l *log.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debug(fmt.Sprintf(format, args...))
}

func (s *Store) open() error {
	var opts badgerdb.Options
	if s.inMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(s.dir, 0700); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
		opts = badgerdb.DefaultOptions(s.dir).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{l: logger.With("component", "badger")})

	db, err := badgerdb.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to open badger store: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Init() error {
	if s.db != nil {
		return nil
	}
	return s.open()
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}
	if !s.inMemory {
		if _, err := os.Stat(s.dir); os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'habitflow init' first")
		}
	}
	return s.open()
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) Get(key string) ([]byte, error) {
	if s.db == nil {
		return nil, storage.ErrNotLoaded
	}
	var out []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return out, nil
}

// PutBatch writes all entries in one read-write transaction.
func (s *Store) PutBatch(entries map[string][]byte) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		for k, v := range entries {
			if err := txn.Set([]byte(k), append([]byte(nil), v...)); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}
	return nil
}

func (s *Store) GetConfigPath() string {
	if s.inMemory {
		return ":memory:"
	}
	return s.dir
}
