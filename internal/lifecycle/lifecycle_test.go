package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/julianstephens/habitflow/internal/models"
)

func newHabit(status models.Status) models.Habit {
	return models.Habit{
		ID:          "run",
		Title:       "Run",
		Category:    models.CategoryHealth,
		Status:      status,
		PointsValue: 10,
	}
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestToggleCompleteRoundTrip(t *testing.T) {
	h := newHabit(models.StatusPending)

	done, err := ToggleComplete(h)
	if err != nil {
		t.Fatalf("ToggleComplete() error = %v", err)
	}
	if done.Habit.Status != models.StatusDone {
		t.Errorf("Expected status done, got %s", done.Habit.Status)
	}
	if done.PointsDelta != 10 {
		t.Errorf("Expected +10 points, got %d", done.PointsDelta)
	}
	if done.Reminders != ReminderCancel {
		t.Errorf("Expected reminders to be cancelled, got %s", done.Reminders)
	}

	undone, err := ToggleComplete(done.Habit)
	if err != nil {
		t.Fatalf("ToggleComplete() undo error = %v", err)
	}
	if undone.Habit.Status != models.StatusPending {
		t.Errorf("Expected status pending after undo, got %s", undone.Habit.Status)
	}
	if done.PointsDelta+undone.PointsDelta != 0 {
		t.Errorf("Expected net zero points, got %d", done.PointsDelta+undone.PointsDelta)
	}
	if undone.Reminders != ReminderKeep {
		t.Errorf("Expected reminders untouched on undo, got %s", undone.Reminders)
	}
	if h.Status != models.StatusPending {
		t.Error("ToggleComplete must not modify its input")
	}
}

func TestToggleCompleteDailyTarget(t *testing.T) {
	h := newHabit(models.StatusPending)
	h.DailyTarget = 3

	for i := 1; i < 3; i++ {
		tr, err := ToggleComplete(h)
		if err != nil {
			t.Fatalf("ToggleComplete() error = %v", err)
		}
		if tr.Habit.Status != models.StatusPending || tr.PointsDelta != 0 {
			t.Fatalf("completion %d: expected pending with no points, got %s %+d", i, tr.Habit.Status, tr.PointsDelta)
		}
		if tr.Habit.DailyCompletions != i {
			t.Fatalf("completion %d: expected count %d, got %d", i, i, tr.Habit.DailyCompletions)
		}
		h = tr.Habit
	}

	tr, err := ToggleComplete(h)
	if err != nil {
		t.Fatalf("ToggleComplete() error = %v", err)
	}
	if tr.Habit.Status != models.StatusDone || tr.PointsDelta != 10 {
		t.Errorf("Expected done with +10 on reaching target, got %s %+d", tr.Habit.Status, tr.PointsDelta)
	}
}

func TestTransitionsRejected(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"toggle postponed", func() error {
			h := newHabit(models.StatusPostponed)
			h.PostponedUntil = "2026-01-02"
			_, err := ToggleComplete(h)
			return err
		}},
		{"toggle skipped", func() error { _, err := ToggleComplete(newHabit(models.StatusSkipped)); return err }},
		{"postpone done", func() error { _, err := Postpone(newHabit(models.StatusDone), day("2026-01-02")); return err }},
		{"postpone skipped", func() error { _, err := Postpone(newHabit(models.StatusSkipped), day("2026-01-02")); return err }},
		{"skip done", func() error { _, err := Skip(newHabit(models.StatusDone)); return err }},
		{"skip postponed", func() error { _, err := Skip(newHabit(models.StatusPostponed)); return err }},
		{"unpostpone pending", func() error { _, err := Unpostpone(newHabit(models.StatusPending)); return err }},
		{"unpostpone done", func() error { _, err := Unpostpone(newHabit(models.StatusDone)); return err }},
		{"edit done", func() error { _, err := EditTimes(newHabit(models.StatusDone), TimesPatch{}); return err }},
		{"edit skipped", func() error { _, err := EditTimes(newHabit(models.StatusSkipped), TimesPatch{}); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestPostponeAndUnpostpone(t *testing.T) {
	h := newHabit(models.StatusPending)
	h.ReminderTime = "08:00"

	p, err := Postpone(h, day("2026-04-12"))
	if err != nil {
		t.Fatalf("Postpone() error = %v", err)
	}
	if p.Habit.Status != models.StatusPostponed || p.Habit.PostponedUntil != "2026-04-12" {
		t.Errorf("Unexpected postponed habit: %+v", p.Habit)
	}
	if p.Reminders != ReminderCancel {
		t.Errorf("Expected cancel, got %s", p.Reminders)
	}

	again, err := Postpone(p.Habit, day("2026-04-15"))
	if err != nil {
		t.Fatalf("re-Postpone() error = %v", err)
	}
	if again.Habit.PostponedUntil != "2026-04-15" {
		t.Errorf("Expected new postponement date, got %s", again.Habit.PostponedUntil)
	}

	u, err := Unpostpone(again.Habit)
	if err != nil {
		t.Fatalf("Unpostpone() error = %v", err)
	}
	if u.Habit.Status != models.StatusPending || u.Habit.PostponedUntil != "" {
		t.Errorf("Expected cleared pending habit, got %+v", u.Habit)
	}
	if u.Reminders != ReminderReschedule {
		t.Errorf("Expected reschedule for a habit with a reminder, got %s", u.Reminders)
	}
}

func TestUnpostponeSkippedWithoutReminder(t *testing.T) {
	u, err := Unpostpone(newHabit(models.StatusSkipped))
	if err != nil {
		t.Fatalf("Unpostpone() error = %v", err)
	}
	if u.Habit.Status != models.StatusPending {
		t.Errorf("Expected pending, got %s", u.Habit.Status)
	}
	if u.Reminders != ReminderKeep {
		t.Errorf("Expected keep for a habit without reminders, got %s", u.Reminders)
	}
}

func TestEditTimesPatch(t *testing.T) {
	h := newHabit(models.StatusPostponed)
	h.PostponedUntil = "2026-04-12"
	h.DueTime = "07:00"
	h.ReminderTime = "06:45"
	h.ReminderFrequencyHours = 2

	remind := "09:00"
	empty := ""
	freq := -3
	tr, err := EditTimes(h, TimesPatch{ReminderTime: &remind, DueTime: &empty, ReminderFrequencyHours: &freq})
	if err != nil {
		t.Fatalf("EditTimes() error = %v", err)
	}
	got := tr.Habit
	if got.Status != models.StatusPostponed || got.PostponedUntil != "2026-04-12" {
		t.Errorf("EditTimes must not change status, got %s until %q", got.Status, got.PostponedUntil)
	}
	if got.ReminderTime != "09:00" {
		t.Errorf("Expected reminder 09:00, got %q", got.ReminderTime)
	}
	if got.DueTime != "" {
		t.Errorf("Expected due time cleared, got %q", got.DueTime)
	}
	if got.ReminderFrequencyHours != 0 {
		t.Errorf("Expected negative frequency clamped to 0, got %d", got.ReminderFrequencyHours)
	}
	if tr.Reminders != ReminderReschedule {
		t.Errorf("Expected reschedule, got %s", tr.Reminders)
	}
}

func TestRollover(t *testing.T) {
	tests := []struct {
		from models.Status
		want models.Status
	}{
		{models.StatusDone, models.StatusPending},
		{models.StatusSkipped, models.StatusPending},
		{models.StatusPending, models.StatusPending},
		{models.StatusPostponed, models.StatusPostponed},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			h := newHabit(tt.from)
			h.DailyTarget = 2
			h.DailyCompletions = 2
			if tt.from == models.StatusPostponed {
				h.PostponedUntil = "2026-09-01"
			}
			tr := Rollover(h)
			if tr.Habit.Status != tt.want {
				t.Errorf("Rollover(%s) = %s, want %s", tt.from, tr.Habit.Status, tt.want)
			}
			if tr.PointsDelta != 0 {
				t.Errorf("Rollover must not change points, got %d", tr.PointsDelta)
			}
			if tt.from == models.StatusPostponed && tr.Habit.PostponedUntil != "2026-09-01" {
				t.Error("Rollover must leave postponed habits alone")
			}
			if tt.from != models.StatusPostponed && tr.Habit.DailyCompletions != 0 {
				t.Errorf("Expected completions reset, got %d", tr.Habit.DailyCompletions)
			}
		})
	}
}

func TestAdvancePostponed(t *testing.T) {
	a := newHabit(models.StatusPending)
	a.ID = "a"
	b := newHabit(models.StatusPostponed)
	b.ID = "b"
	b.PostponedUntil = "2026-05-03"
	c := newHabit(models.StatusPostponed)
	c.ID = "c"
	c.PostponedUntil = "2026-05-10"
	habits := []models.Habit{a, b, c}

	t.Run("nothing reached", func(t *testing.T) {
		out, revived := AdvancePostponed(habits, day("2026-05-02"))
		if len(revived) != 0 {
			t.Errorf("Expected no revived habits, got %v", revived)
		}
		if &out[0] != &habits[0] {
			t.Error("Expected the input slice to be returned unchanged")
		}
	})

	t.Run("date reached", func(t *testing.T) {
		out, revived := AdvancePostponed(habits, day("2026-05-03"))
		if len(revived) != 1 || revived[0] != "b" {
			t.Fatalf("Expected [b] revived, got %v", revived)
		}
		if out[1].Status != models.StatusPending || out[1].PostponedUntil != "" {
			t.Errorf("Expected b to be pending, got %+v", out[1])
		}
		if out[2].Status != models.StatusPostponed {
			t.Errorf("Expected c to stay postponed, got %s", out[2].Status)
		}
		if habits[1].Status != models.StatusPostponed {
			t.Error("AdvancePostponed must not modify the input collection")
		}
		if len(out) != len(habits) || out[0].ID != "a" {
			t.Errorf("Expected order preserved, got %v", out)
		}
	})
}
