package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/julianstephens/habitflow/internal/logger"
)

// Watcher reports external writes to a file-backed store. It watches the
// containing directory because atomic writers replace the file by rename,
// which drops a watch placed on the file itself.
type Watcher struct {
	dir      string
	match    func(name string) bool
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// NewWatcher watches path. When path is a directory (badger) any change
// inside it counts; otherwise only the file and its sqlite sidecars do.
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir, base := filepath.Dir(path), filepath.Base(path)
	match := func(name string) bool {
		b := filepath.Base(name)
		return b == base || strings.HasPrefix(b, base+"-") // -wal, -journal
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		dir = path
		match = func(name string) bool { return !strings.HasSuffix(name, ".tmp") }
	}

	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	return &Watcher{dir: dir, match: match, debounce: debounce, watcher: w}, nil
}

// Run blocks until ctx is done, calling onChange once per burst of writes.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer w.watcher.Close()

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.match(ev.Name) || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			onChange()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Store watcher error", "dir", w.dir, "error", err)
		}
	}
}
