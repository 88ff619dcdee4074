package habitstore

import (
	"context"
	"time"

	"github.com/julianstephens/habitflow/internal/lifecycle"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/reminders"
	"github.com/julianstephens/habitflow/internal/utils"
)

// cancel drops every scheduled reminder for id. Failures are logged.
func (s *Store) cancel(ctx context.Context, id string) {
	if err := s.notes.CancelAllForHabit(ctx, id); err != nil {
		s.log.Warn("Failed to cancel reminders", "id", id, "error", err)
	}
}

// wantsReminders reports whether h should have reminders today.
func (s *Store) wantsReminders(h models.Habit, today time.Time) bool {
	return reminders.ShouldSchedule(h, today, s.carried[h.ID] == utils.FormatDate(today))
}

// at is the instant a trigger fires on day.
func (s *Store) at(day time.Time, t reminders.Trigger) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, s.loc)
}

// schedule requests every trigger for h. The caller has already cancelled
// the habit's previous reminders. Overnight triggers are booked once for
// tomorrow so they cannot fire before tonight's window opens.
func (s *Store) schedule(ctx context.Context, h models.Habit, today time.Time) {
	if !s.permitted || !s.wantsReminders(h, today) {
		return
	}
	tomorrow := today.AddDate(0, 0, 1)
	for _, t := range reminders.ComputeTriggers(h) {
		var err error
		if t.Overnight {
			_, err = s.notes.ScheduleAt(ctx, h.ID, t.Title, t.Body, s.at(tomorrow, t))
		} else {
			_, err = s.notes.Schedule(ctx, h.ID, t.Title, t.Body, t.Hour, t.Minute)
		}
		if err != nil {
			s.log.Warn("Failed to schedule reminder", "id", h.ID, "at", t.Clock(), "error", err)
		}
	}
}

// collectTails records the overnight triggers of yesterday's windows
// before the rollover resets the collection. Habits that were done or
// skipped yesterday had their reminders cancelled and leave no tail.
func (s *Store) collectTails(today time.Time) {
	s.tails, s.tailsDay = nil, ""
	yesterday := today.AddDate(0, 0, -1)
	if s.stats.LastLoginDate != utils.FormatDate(yesterday) {
		return
	}
	tails := make(map[string][]reminders.Trigger)
	for _, h := range s.habits {
		if !s.wantsReminders(h, yesterday) {
			continue
		}
		for _, t := range reminders.ComputeTriggers(h) {
			if t.Overnight {
				tails[h.ID] = append(tails[h.ID], t)
			}
		}
	}
	s.tails, s.tailsDay = tails, utils.FormatDate(today)
}

// scheduleTails books what is left of yesterday's window for h so a
// resync after midnight does not drop it.
func (s *Store) scheduleTails(ctx context.Context, h models.Habit, today time.Time) {
	if !s.permitted || h.Status != models.StatusPending || s.tailsDay != utils.FormatDate(today) {
		return
	}
	now := s.now()
	for _, t := range s.tails[h.ID] {
		at := s.at(today, t)
		if !at.After(now) {
			continue
		}
		if _, err := s.notes.ScheduleAt(ctx, h.ID, t.Title, t.Body, at); err != nil {
			s.log.Warn("Failed to keep overnight reminder", "id", h.ID, "at", t.Clock(), "error", err)
		}
	}
}

// reconcile applies a transition's reminder action. Cancel always
// completes before any reschedule for the same habit begins.
func (s *Store) reconcile(ctx context.Context, h models.Habit, action lifecycle.ReminderAction, today time.Time) {
	if action != lifecycle.ReminderKeep {
		delete(s.tails, h.ID)
	}
	switch action {
	case lifecycle.ReminderCancel:
		s.cancel(ctx, h.ID)
	case lifecycle.ReminderReschedule:
		s.cancel(ctx, h.ID)
		s.schedule(ctx, h, today)
	}
}

// resyncAll rebuilds reminders for the whole collection. Ids only present
// in previous are cancelled.
func (s *Store) resyncAll(ctx context.Context, previous []models.Habit, today time.Time) {
	current := make(map[string]bool, len(s.habits))
	for _, h := range s.habits {
		current[h.ID] = true
	}
	for _, h := range previous {
		if !current[h.ID] {
			s.cancel(ctx, h.ID)
		}
	}
	for _, h := range s.habits {
		s.cancel(ctx, h.ID)
		s.schedule(ctx, h, today)
		s.scheduleTails(ctx, h, today)
	}
}
