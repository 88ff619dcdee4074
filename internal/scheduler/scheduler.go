// Package scheduler turns reminder requests into timed deliveries. Cron
// fires real notifications through a notifier.Sink; Recorder only keeps
// track of what was asked for.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/notifier"
)

// Reminder is one scheduled delivery. At is set for one-shot reminders
// and zero for daily ones.
type Reminder struct {
	Handle  string
	HabitID string
	Title   string
	Body    string
	Hour    int
	Minute  int
	At      time.Time
}

// Clock renders the reminder time as HH:MM.
func (r Reminder) Clock() string {
	return fmt.Sprintf("%02d:%02d", r.Hour, r.Minute)
}

func sortReminders(out []Reminder) {
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Hour*60+a.Minute != b.Hour*60+b.Minute {
			return a.Hour*60+a.Minute < b.Hour*60+b.Minute
		}
		return a.HabitID < b.HabitID
	})
}

func validClock(hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("invalid reminder time %02d:%02d", hour, minute)
	}
	return nil
}

// availability is implemented by sinks that can tell whether delivery is
// currently possible (the tray companion).
type availability interface {
	Available() error
}

// Cron schedules reminders as daily cron entries. The daemon rebuilds the
// schedule at every rollover, so an entry only ever fires for today.
// Reminders past midnight are one-shot entries pinned to their date.
type Cron struct {
	cron *cron.Cron
	sink notifier.Sink

	mu        sync.Mutex
	byHabit   map[string][]cron.EntryID
	reminders map[cron.EntryID]Reminder
}

// NewCron builds a scheduler evaluating times in loc.
func NewCron(loc *time.Location, sink notifier.Sink) *Cron {
	return &Cron{
		cron:      cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		sink:      sink,
		byHabit:   make(map[string][]cron.EntryID),
		reminders: make(map[cron.EntryID]Reminder),
	}
}

func (c *Cron) Start() {
	c.cron.Start()
}

// Stop halts the cron loop and waits for running jobs to finish.
func (c *Cron) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

// RequestPermission reports whether the sink can deliver right now.
func (c *Cron) RequestPermission(ctx context.Context) bool {
	if a, ok := c.sink.(availability); ok {
		if err := a.Available(); err != nil {
			logger.Warn("Notification sink unavailable", "sink", c.sink.Name(), "error", err)
			return false
		}
	}
	return true
}

// Schedule registers a daily delivery at hour:minute for habitID.
func (c *Cron) Schedule(ctx context.Context, habitID, title, body string, hour, minute int) (string, error) {
	if err := validClock(hour, minute); err != nil {
		return "", err
	}
	n := notifier.Notification{HabitID: habitID, Title: title, Body: body}

	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.cron.AddFunc(DailySpec(hour, minute), func() {
		c.deliver(n)
	})
	if err != nil {
		return "", fmt.Errorf("schedule reminder: %w", err)
	}
	handle := habitID + "#" + strconv.Itoa(int(id))
	c.byHabit[habitID] = append(c.byHabit[habitID], id)
	c.reminders[id] = Reminder{Handle: handle, HabitID: habitID, Title: title, Body: body, Hour: hour, Minute: minute}
	return handle, nil
}

// once is a cron.Schedule that fires a single time.
type once time.Time

func (o once) Next(t time.Time) time.Time {
	if at := time.Time(o); t.Before(at) {
		return at
	}
	return time.Time{}
}

// ScheduleAt registers a single delivery at the given instant. The entry
// removes itself after firing.
func (c *Cron) ScheduleAt(ctx context.Context, habitID, title, body string, at time.Time) (string, error) {
	if !at.After(time.Now()) {
		return "", fmt.Errorf("reminder time %s has already passed", at.Format(time.RFC3339))
	}
	n := notifier.Notification{HabitID: habitID, Title: title, Body: body}

	c.mu.Lock()
	defer c.mu.Unlock()

	var id cron.EntryID
	id = c.cron.Schedule(once(at), cron.FuncJob(func() {
		c.deliver(n)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.drop(habitID, id)
	}))
	handle := habitID + "#" + strconv.Itoa(int(id))
	c.byHabit[habitID] = append(c.byHabit[habitID], id)
	local := at.In(c.cron.Location())
	c.reminders[id] = Reminder{Handle: handle, HabitID: habitID, Title: title, Body: body, Hour: local.Hour(), Minute: local.Minute(), At: at}
	return handle, nil
}

// drop forgets a fired one-shot entry. The caller holds c.mu.
func (c *Cron) drop(habitID string, id cron.EntryID) {
	c.cron.Remove(id)
	delete(c.reminders, id)
	ids := c.byHabit[habitID]
	for i, v := range ids {
		if v == id {
			c.byHabit[habitID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(c.byHabit[habitID]) == 0 {
		delete(c.byHabit, habitID)
	}
}

func (c *Cron) deliver(n notifier.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := c.sink.Send(ctx, n); err != nil {
		logger.Warn("Reminder delivery failed", "habit", n.HabitID, "sink", c.sink.Name(), "error", err)
		return
	}
	logger.Debug("Reminder delivered", "habit", n.HabitID, "title", n.Title)
}

// CancelAllForHabit removes every entry for habitID. It is safe to call
// for a habit with nothing scheduled.
func (c *Cron) CancelAllForHabit(ctx context.Context, habitID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.byHabit[habitID] {
		c.cron.Remove(id)
		delete(c.reminders, id)
	}
	delete(c.byHabit, habitID)
	return nil
}

// ScheduleDaily registers a job at the given HH:MM every day.
func (c *Cron) ScheduleDaily(timeStr string, job func()) (cron.EntryID, error) {
	hour, minute, err := parseClock(timeStr)
	if err != nil {
		return 0, err
	}
	return c.cron.AddFunc(DailySpec(hour, minute), job)
}

// ScheduleInterval registers a periodic job.
func (c *Cron) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval < time.Second {
		return 0, fmt.Errorf("interval must be at least one second")
	}
	return c.cron.AddFunc(fmt.Sprintf("@every %ds", int(interval.Seconds())), job)
}

// Reminders lists the scheduled reminders ordered by time.
func (c *Cron) Reminders() []Reminder {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Reminder, 0, len(c.reminders))
	for _, r := range c.reminders {
		out = append(out, r)
	}
	sortReminders(out)
	return out
}

// Next returns the next fire time of a reminder handle. Fire times are
// only known while the cron loop runs.
func (c *Cron) Next(handle string) (time.Time, bool) {
	_, idStr, ok := strings.Cut(handle, "#")
	if !ok {
		return time.Time{}, false
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return time.Time{}, false
	}
	e := c.cron.Entry(cron.EntryID(id))
	if e.ID == 0 || e.Next.IsZero() {
		return time.Time{}, false
	}
	return e.Next, true
}

// Upcoming returns the reminder that fires soonest and when.
func (c *Cron) Upcoming() (Reminder, time.Time, bool) {
	var (
		first Reminder
		when  time.Time
		found bool
	)
	for _, r := range c.Reminders() {
		next, ok := c.Next(r.Handle)
		if !ok {
			continue
		}
		if !found || next.Before(when) {
			first, when, found = r, next, true
		}
	}
	return first, when, found
}

// DailySpec is the six-field cron spec for hour:minute every day.
func DailySpec(hour, minute int) string {
	return fmt.Sprintf("0 %d %d * * *", minute, hour)
}

func parseClock(timeStr string) (int, int, error) {
	h, m, ok := strings.Cut(timeStr, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minute in %q", timeStr)
	}
	if err := validClock(hour, minute); err != nil {
		return 0, 0, err
	}
	return hour, minute, nil
}
