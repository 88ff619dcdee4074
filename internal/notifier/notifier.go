// Package notifier delivers reminder notifications to the user. A Sink is
// one delivery channel; the scheduler decides when to call it.
package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/logger"
)

// Notification is one message for the user.
type Notification struct {
	HabitID string
	Title   string
	Body    string
}

// Text renders the notification as a single line for text-only sinks.
func (n Notification) Text() string {
	if n.Title == "" {
		return n.Body
	}
	return n.Title + ": " + n.Body
}

// Sink delivers notifications.
type Sink interface {
	Send(ctx context.Context, n Notification) error
	// Name identifies the sink in logs and doctor output.
	Name() string
}

// Retrying wraps a sink so transient failures are retried a few times.
type Retrying struct {
	Sink     Sink
	Attempts int
	Delay    time.Duration
}

// WithRetry wraps s with the default notification retry policy.
func WithRetry(s Sink) *Retrying {
	return &Retrying{Sink: s, Attempts: constants.NotifyMaxRetries, Delay: constants.NotifyRetryDelay}
}

func (r *Retrying) Name() string {
	return r.Sink.Name()
}

func (r *Retrying) Send(ctx context.Context, n Notification) error {
	attempts := max(r.Attempts, 1)
	var err error
	for i := 0; i < attempts; i++ {
		if err = r.Sink.Send(ctx, n); err == nil {
			return nil
		}
		logger.Debug("Notification attempt failed", "sink", r.Sink.Name(), "attempt", i+1, "error", err)
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.Delay):
		}
	}
	return fmt.Errorf("%s: giving up after %d attempts: %w", r.Sink.Name(), attempts, err)
}
