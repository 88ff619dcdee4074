package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Recorder keeps reminders in memory without delivering them. One-shot
// CLI commands use it since the notify daemon owns real delivery, and
// tests use it to observe what the store asked for.
type Recorder struct {
	mu        sync.Mutex
	seq       int
	reminders map[string][]Reminder
	log       []string

	// Denied makes RequestPermission report false.
	Denied bool
	// FailSchedule makes every Schedule call fail.
	FailSchedule error
}

func NewRecorder() *Recorder {
	return &Recorder{reminders: make(map[string][]Reminder)}
}

func (r *Recorder) RequestPermission(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, "permission")
	return !r.Denied
}

func (r *Recorder) Schedule(ctx context.Context, habitID, title, body string, hour, minute int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailSchedule != nil {
		r.log = append(r.log, "schedule-failed:"+habitID)
		return "", r.FailSchedule
	}
	if err := validClock(hour, minute); err != nil {
		return "", err
	}
	r.seq++
	handle := fmt.Sprintf("%s#%d", habitID, r.seq)
	r.reminders[habitID] = append(r.reminders[habitID], Reminder{
		Handle: handle, HabitID: habitID, Title: title, Body: body, Hour: hour, Minute: minute,
	})
	r.log = append(r.log, "schedule:"+habitID)
	return handle, nil
}

func (r *Recorder) ScheduleAt(ctx context.Context, habitID, title, body string, at time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailSchedule != nil {
		r.log = append(r.log, "schedule-failed:"+habitID)
		return "", r.FailSchedule
	}
	r.seq++
	handle := fmt.Sprintf("%s#%d", habitID, r.seq)
	r.reminders[habitID] = append(r.reminders[habitID], Reminder{
		Handle: handle, HabitID: habitID, Title: title, Body: body, Hour: at.Hour(), Minute: at.Minute(), At: at,
	})
	r.log = append(r.log, "schedule:"+habitID)
	return handle, nil
}

func (r *Recorder) CancelAllForHabit(ctx context.Context, habitID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reminders, habitID)
	r.log = append(r.log, "cancel:"+habitID)
	return nil
}

// For returns the reminders currently held for habitID.
func (r *Recorder) For(habitID string) []Reminder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Reminder(nil), r.reminders[habitID]...)
}

// Reminders lists every held reminder ordered by time.
func (r *Recorder) Reminders() []Reminder {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Reminder
	for _, rs := range r.reminders {
		out = append(out, rs...)
	}
	sortReminders(out)
	return out
}

// Calls returns the ordered call log ("permission", "schedule:<id>",
// "cancel:<id>").
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}

// Reset clears the call log.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = nil
}
