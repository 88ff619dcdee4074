package notifier

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// Writer prints notifications as timestamped lines. It is the sink for
// headless machines and for `habitflow notify --dry-run`.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, now: time.Now}
}

func (s *Writer) Name() string { return "stdout" }

func (s *Writer) Send(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "[%s] %s\n", s.now().Format("15:04"), n.Text())
	return err
}
