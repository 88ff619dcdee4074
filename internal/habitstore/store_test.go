package habitstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/lifecycle"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/rollover"
	"github.com/julianstephens/habitflow/internal/scheduler"
	"github.com/julianstephens/habitflow/internal/storage"
	"github.com/julianstephens/habitflow/internal/validation"
)

// 2026-10-16 is a Friday.
var day0 = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) addDays(n int) { c.t = c.t.AddDate(0, 0, n) }

type fixture struct {
	store    *Store
	provider *storage.MemoryStore
	notes    *scheduler.Recorder
	clock    *clock
}

func newFixture(t *testing.T, plant map[string]string, opts ...Option) *fixture {
	t.Helper()
	mem := storage.NewMemoryStore()
	if err := mem.Init(); err != nil {
		t.Fatal(err)
	}
	for k, v := range plant {
		mem.Set(k, []byte(v))
	}
	f := &fixture{provider: mem, notes: scheduler.NewRecorder(), clock: &clock{t: day0}}
	base := []Option{WithClock(f.clock.now), WithLocation(time.UTC), WithRetryDelay(time.Millisecond)}
	f.store = New(mem, f.notes, append(base, opts...)...)
	return f
}

func (f *fixture) open(t *testing.T) {
	t.Helper()
	if err := f.store.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
}

func (f *fixture) persistedHabits(t *testing.T) []map[string]any {
	t.Helper()
	raw, err := f.provider.Get(constants.KeyHabits)
	if err != nil {
		t.Fatalf("Get(@habits) error = %v", err)
	}
	var out []map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("persisted habits are not a JSON array: %v", err)
	}
	return out
}

func (f *fixture) persistedStats(t *testing.T) models.UserStats {
	t.Helper()
	raw, err := f.provider.Get(constants.KeyUserStats)
	if err != nil {
		t.Fatalf("Get(@userStats) error = %v", err)
	}
	var st models.UserStats
	if err := json.Unmarshal(raw, &st); err != nil {
		t.Fatal(err)
	}
	return st
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func statsOn(date string) string {
	return `{"currentStreak":4,"longestStreak":6,"totalPoints":100,"lastLoginDate":"` + date + `"}`
}

func TestOpenSeedsEmptyStore(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t)

	habits := f.store.Habits(context.Background())
	if len(habits) != 5 {
		t.Fatalf("expected 5 starter habits, got %d", len(habits))
	}
	for _, h := range habits {
		if h.Status != models.StatusPending || h.Category != models.CategoryMorning {
			t.Errorf("unexpected starter habit %+v", h)
		}
	}
	if got := f.persistedStats(t).LastLoginDate; got != "2026-10-16" {
		t.Errorf("expected stats anchored on today, got %s", got)
	}
	if len(f.persistedHabits(t)) != 5 {
		t.Error("expected the seed to be persisted")
	}
}

func TestOpenWithoutSeed(t *testing.T) {
	f := newFixture(t, nil, WithSeed(false))
	f.open(t)
	if got := f.store.Habits(context.Background()); len(got) != 0 {
		t.Errorf("expected no habits, got %d", len(got))
	}
}

func TestUseBeforeOpen(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.store.ToggleCompletion(context.Background(), "1"); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
	if err := f.store.Reload(context.Background()); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
}

func TestToggleCompletionScenario(t *testing.T) {
	f := newFixture(t, nil, WithSeed(false))
	f.open(t)
	ctx := context.Background()

	run, err := f.store.AddHabit(ctx, models.HabitDraft{Title: "Run", Category: models.CategoryHealth, PointsValue: 10})
	if err != nil {
		t.Fatalf("AddHabit() error = %v", err)
	}
	before := f.store.Stats(ctx).TotalPoints

	h, err := f.store.ToggleCompletion(ctx, run.ID)
	if err != nil {
		t.Fatalf("ToggleCompletion() error = %v", err)
	}
	if h.Status != models.StatusDone || f.store.Stats(ctx).TotalPoints != before+10 {
		t.Errorf("after first toggle: status=%s points=%d", h.Status, f.store.Stats(ctx).TotalPoints)
	}
	if got := f.store.CompletedToday(ctx); len(got) != 1 || got[0].ID != run.ID {
		t.Errorf("expected Run in CompletedToday, got %+v", got)
	}

	h, err = f.store.ToggleCompletion(ctx, run.ID)
	if err != nil {
		t.Fatalf("ToggleCompletion() error = %v", err)
	}
	if h.Status != models.StatusPending || f.store.Stats(ctx).TotalPoints != before {
		t.Errorf("after second toggle: status=%s points=%d", h.Status, f.store.Stats(ctx).TotalPoints)
	}
	if got := f.persistedStats(t).TotalPoints; got != before {
		t.Errorf("persisted points = %d, want %d", got, before)
	}
}

func TestDailyTargetCountsBeforeDone(t *testing.T) {
	f := newFixture(t, nil, WithSeed(false))
	f.open(t)
	ctx := context.Background()

	water, err := f.store.AddHabit(ctx, models.HabitDraft{Title: "Water", Category: models.CategoryHealth, PointsValue: 5, DailyTarget: 3})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 2; i++ {
		h, _ := f.store.ToggleCompletion(ctx, water.ID)
		if h.Status != models.StatusPending || h.DailyCompletions != i {
			t.Fatalf("toggle %d: status=%s completions=%d", i, h.Status, h.DailyCompletions)
		}
	}
	h, _ := f.store.ToggleCompletion(ctx, water.ID)
	if h.Status != models.StatusDone || f.store.Stats(ctx).TotalPoints != 5 {
		t.Errorf("expected done with 5 points, got status=%s points=%d", h.Status, f.store.Stats(ctx).TotalPoints)
	}
}

func TestRolloverOnOpen(t *testing.T) {
	habits := []models.Habit{
		{ID: "done", Title: "Done", Category: models.CategoryHabit, Status: models.StatusDone, PointsValue: 10, DailyCompletions: 2},
		{ID: "skipped", Title: "Skipped", Category: models.CategoryHabit, Status: models.StatusSkipped, PointsValue: 10},
		{ID: "later", Title: "Later", Category: models.CategoryHabit, Status: models.StatusPostponed, PostponedUntil: "2026-10-20", PointsValue: 10},
	}

	tests := []struct {
		name        string
		lastLogin   string
		wantStreak  int
		wantLongest int
		wantOutcome rollover.Outcome
	}{
		{"yesterday continues", "2026-10-15", 5, 6, rollover.OutcomeContinued},
		{"gap breaks", "2026-10-13", 0, 6, rollover.OutcomeBroken},
		{"future date keeps streak", "2026-10-18", 4, 6, rollover.OutcomeClockSkew},
		{"garbage date", "last tuesday", 4, 6, rollover.OutcomeFirstRun},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, map[string]string{
				constants.KeyHabits:        mustJSON(t, habits),
				constants.KeyUserStats:     statsOn(tt.lastLogin),
				constants.KeySchemaVersion: "1",
			})
			f.open(t)
			ctx := context.Background()

			st := f.store.Stats(ctx)
			if st.CurrentStreak != tt.wantStreak || st.LongestStreak != tt.wantLongest {
				t.Errorf("streak=%d longest=%d, want %d/%d", st.CurrentStreak, st.LongestStreak, tt.wantStreak, tt.wantLongest)
			}
			if st.TotalPoints != 100 {
				t.Errorf("rollover must not touch points, got %d", st.TotalPoints)
			}
			if st.LastLoginDate != "2026-10-16" {
				t.Errorf("lastLoginDate = %s", st.LastLoginDate)
			}
			if got := f.store.LastRollover().Outcome; got != tt.wantOutcome {
				t.Errorf("outcome = %s, want %s", got, tt.wantOutcome)
			}

			byID := map[string]models.Habit{}
			for _, h := range f.store.Habits(ctx) {
				byID[h.ID] = h
			}
			if byID["done"].Status != models.StatusPending || byID["done"].DailyCompletions != 0 {
				t.Errorf("done habit not reset: %+v", byID["done"])
			}
			if byID["skipped"].Status != models.StatusPending {
				t.Errorf("skipped habit not reset: %+v", byID["skipped"])
			}
			if byID["later"].Status != models.StatusPostponed || byID["later"].PostponedUntil != "2026-10-20" {
				t.Errorf("postponed habit changed by rollover: %+v", byID["later"])
			}
			if f.persistedStats(t).LastLoginDate != "2026-10-16" {
				t.Error("rollover was not persisted")
			}
		})
	}
}

func TestSameDayOpenDoesNotWrite(t *testing.T) {
	habits := []models.Habit{{ID: "a", Title: "A", Category: models.CategoryHabit, Status: models.StatusDone, PointsValue: 1}}
	f := newFixture(t, map[string]string{
		constants.KeyHabits:        mustJSON(t, habits),
		constants.KeyUserStats:     statsOn("2026-10-16"),
		constants.KeySchemaVersion: "1",
	})
	f.open(t)
	if f.provider.Writes != 0 {
		t.Errorf("expected no writes on a same-day open, got %d", f.provider.Writes)
	}
	if got := f.store.Habits(context.Background())[0].Status; got != models.StatusDone {
		t.Errorf("same-day open reset status to %s", got)
	}
}

func TestMidnightRollover(t *testing.T) {
	f := newFixture(t, nil, WithSeed(false))
	f.open(t)
	ctx := context.Background()

	h, _ := f.store.AddHabit(ctx, models.HabitDraft{Title: "Read", Category: models.CategoryHabit, PointsValue: 5})
	if _, err := f.store.ToggleCompletion(ctx, h.ID); err != nil {
		t.Fatal(err)
	}

	f.clock.addDays(1)
	res, err := f.store.Rollover(ctx)
	if err != nil {
		t.Fatalf("Rollover() error = %v", err)
	}
	if res.Outcome != rollover.OutcomeContinued {
		t.Errorf("outcome = %s", res.Outcome)
	}
	if got := f.store.Stats(ctx); got.CurrentStreak != 1 || got.TotalPoints != 5 {
		t.Errorf("unexpected stats %+v", got)
	}
	if got := f.store.Active(ctx); len(got) != 1 {
		t.Errorf("expected the habit to be active again, got %+v", got)
	}

	res, _ = f.store.Rollover(ctx)
	if res.Changed {
		t.Error("second rollover on the same day must be a no-op")
	}
}

func TestDayChangeWhileOpenRollsOverBeforeViews(t *testing.T) {
	f := newFixture(t, nil, WithSeed(false))
	f.open(t)
	ctx := context.Background()

	h, _ := f.store.AddHabit(ctx, models.HabitDraft{Title: "Read", Category: models.CategoryHabit, PointsValue: 5})
	f.store.ToggleCompletion(ctx, h.ID)

	f.clock.addDays(1)
	if got := f.store.CompletedToday(ctx); len(got) != 0 {
		t.Errorf("stale completion shown after midnight: %+v", got)
	}
	if got := f.store.Stats(ctx).CurrentStreak; got != 1 {
		t.Errorf("streak = %d, want 1", got)
	}
}

func TestLegacyRecordsAreUpgraded(t *testing.T) {
	legacy := `[
		{"id":"1","title":"Breathing","category":"morning","isCompleted":true,"pointsValue":10},
		{"id":"2","title":"Water","category":"morning","isCompleted":false,"pointsValue":5,"dueTime":"08:00"},
		{"title":"No id","category":"morning","isCompleted":false,"pointsValue":5},
		{"id":"4","title":"Weird","category":"morning","status":"archived","pointsValue":5}
	]`
	f := newFixture(t, map[string]string{
		constants.KeyHabits:    legacy,
		constants.KeyUserStats: statsOn("2026-10-16"),
	})
	f.open(t)

	habits := f.store.Habits(context.Background())
	if len(habits) != 2 {
		t.Fatalf("expected 2 habits after dropping bad records, got %d", len(habits))
	}
	if habits[0].Status != models.StatusDone || habits[1].Status != models.StatusPending {
		t.Errorf("unexpected statuses %s, %s", habits[0].Status, habits[1].Status)
	}
	if habits[1].DueTime != "08:00" {
		t.Errorf("other fields lost in upgrade: %+v", habits[1])
	}

	persisted := f.persistedHabits(t)
	for _, rec := range persisted {
		if _, ok := rec["isCompleted"]; ok {
			t.Errorf("legacy field written back: %v", rec)
		}
	}
	v, err := f.provider.Get(constants.KeySchemaVersion)
	if err != nil || string(v) != "1" {
		t.Errorf("schema version = %q, %v", v, err)
	}
}

func TestCorruptSnapshotStartsEmpty(t *testing.T) {
	f := newFixture(t, map[string]string{
		constants.KeyHabits:    `{"not":"an array"`,
		constants.KeyUserStats: `nope`,
	})
	f.open(t)
	ctx := context.Background()

	if got := f.store.Habits(ctx); len(got) != 0 {
		t.Errorf("expected empty collection, got %d", len(got))
	}
	if st := f.store.Stats(ctx); st.LastLoginDate != "2026-10-16" || st.TotalPoints != 0 {
		t.Errorf("expected default stats, got %+v", st)
	}
	if len(f.persistedHabits(t)) != 0 {
		t.Error("expected the repaired snapshot to be written")
	}
}

func TestNewerSnapshotIsRefused(t *testing.T) {
	f := newFixture(t, map[string]string{
		constants.KeyHabits:        `[]`,
		constants.KeySchemaVersion: "99",
	})
	if err := f.store.Open(context.Background()); err == nil {
		t.Error("expected error for a snapshot from a newer build")
	}
}

func TestPersistenceFailureDegrades(t *testing.T) {
	f := newFixture(t, nil, WithSeed(false))
	f.open(t)
	ctx := context.Background()

	h, _ := f.store.AddHabit(ctx, models.HabitDraft{Title: "Run", Category: models.CategoryHealth, PointsValue: 10})

	f.provider.FailWrites = constants.PersistMaxRetries
	got, err := f.store.ToggleCompletion(ctx, h.ID)
	if err != nil {
		t.Fatalf("mutation must not fail on a write error, got %v", err)
	}
	if got.Status != models.StatusDone || f.store.Stats(ctx).TotalPoints != 10 {
		t.Error("in-memory state must reflect the mutation")
	}
	if f.store.Degraded() == nil {
		t.Error("expected Degraded to report the failed write")
	}
	if f.persistedStats(t).TotalPoints != 0 {
		t.Error("failed write should not have reached the provider")
	}

	f.provider.FailWrites = constants.PersistMaxRetries - 1
	if _, err := f.store.ToggleCompletion(ctx, h.ID); err != nil {
		t.Fatal(err)
	}
	if f.store.Degraded() != nil {
		t.Errorf("expected recovery after a retried write, got %v", f.store.Degraded())
	}
}

func TestUnknownIDAndInvalidTransition(t *testing.T) {
	f := newFixture(t, nil, WithSeed(false))
	f.open(t)
	ctx := context.Background()

	if _, err := f.store.Skip(ctx, "missing"); !errors.Is(err, ErrHabitNotFound) {
		t.Errorf("expected ErrHabitNotFound, got %v", err)
	}
	if err := f.store.RemoveHabit(ctx, "missing"); !errors.Is(err, ErrHabitNotFound) {
		t.Errorf("expected ErrHabitNotFound, got %v", err)
	}

	h, _ := f.store.AddHabit(ctx, models.HabitDraft{Title: "Run", Category: models.CategoryHealth, PointsValue: 10})
	if _, err := f.store.Skip(ctx, h.ID); err != nil {
		t.Fatal(err)
	}
	writes := f.provider.Writes

	got, err := f.store.ToggleCompletion(ctx, h.ID)
	if !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if got.Status != models.StatusSkipped {
		t.Errorf("state changed by an invalid transition: %s", got.Status)
	}
	if f.provider.Writes != writes {
		t.Error("invalid transition must not write")
	}
	if f.store.Stats(ctx).TotalPoints != 0 {
		t.Error("invalid transition must not change points")
	}
}

func TestPostponeThenReachDate(t *testing.T) {
	f := newFixture(t, nil, WithSeed(false))
	f.open(t)
	ctx := context.Background()

	// Due only on the 16th of each month, so it is only due on day 2 because
	// its postponement ran out.
	h, err := f.store.AddHabit(ctx, models.HabitDraft{
		Title:       "Pay rent",
		Category:    models.CategoryChore,
		PointsValue: 10,
		Recurrence:  models.NewRecurrence(models.Monthly{DayOfMonth: 16}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.Postpone(ctx, h.ID, day0.AddDate(0, 0, 2)); err != nil {
		t.Fatalf("Postpone() error = %v", err)
	}
	if got := f.store.DueToday(ctx); len(got) != 0 {
		t.Errorf("postponed habit shown as due: %+v", got)
	}
	if got := f.store.Postponed(ctx); len(got) != 1 || got[0].PostponedUntil != "2026-10-18" {
		t.Errorf("unexpected postponed view %+v", got)
	}

	f.clock.addDays(1)
	if got := f.store.DueToday(ctx); len(got) != 0 {
		t.Errorf("habit due before its postponement ran out: %+v", got)
	}

	f.clock.addDays(1)
	due := f.store.DueToday(ctx)
	if len(due) != 1 || due[0].ID != h.ID {
		t.Fatalf("expected the habit due on its postponement date, got %+v", due)
	}
	if due[0].Status != models.StatusPending || due[0].PostponedUntil != "" {
		t.Errorf("postponement not cleared: %+v", due[0])
	}
	for _, rec := range f.persistedHabits(t) {
		if rec["status"] != "pending" {
			t.Errorf("revival not persisted: %v", rec)
		}
	}

	// A fresh process on the same day still sees it as due.
	again := New(f.provider, scheduler.NewRecorder(), WithClock(f.clock.now), WithLocation(time.UTC))
	if err := again.Open(ctx); err != nil {
		t.Fatal(err)
	}
	if got := again.Active(ctx); len(got) != 1 {
		t.Errorf("revived habit lost across reopen: %+v", got)
	}

	f.clock.addDays(1)
	if got := f.store.DueToday(ctx); len(got) != 0 {
		t.Errorf("carried habit still due the next day: %+v", got)
	}
}

func TestPostponeRejectsPastDates(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t)
	if _, err := f.store.Postpone(context.Background(), "1", day0); err == nil {
		t.Error("expected error postponing to today")
	}
}

func TestReminderCancelPrecedesReschedule(t *testing.T) {
	f := newFixture(t, nil, WithSeed(false))
	f.open(t)
	ctx := context.Background()

	h, err := f.store.AddHabit(ctx, models.HabitDraft{
		Title:                  "Stretch",
		Category:               models.CategoryHealth,
		PointsValue:            5,
		ReminderTime:           "09:00",
		ReminderEndTime:        "13:00",
		ReminderFrequencyHours: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(f.notes.For(h.ID)); got != 3 {
		t.Fatalf("expected 3 reminders, got %d", got)
	}

	f.notes.Reset()
	newStart := "10:00"
	if _, err := f.store.EditTimes(ctx, h.ID, lifecycle.TimesPatch{ReminderTime: &newStart}); err != nil {
		t.Fatal(err)
	}
	calls := f.notes.Calls()
	if len(calls) == 0 || calls[0] != "cancel:"+h.ID {
		t.Fatalf("expected cancel first, got %v", calls)
	}
	for _, c := range calls[1:] {
		if strings.HasPrefix(c, "cancel:") {
			t.Errorf("cancel issued after scheduling began: %v", calls)
		}
	}
	rs := f.notes.For(h.ID)
	if len(rs) != 2 || rs[0].Clock() != "10:00" || rs[1].Clock() != "12:00" {
		t.Errorf("unexpected rescheduled reminders %+v", rs)
	}

	if _, err := f.store.ToggleCompletion(ctx, h.ID); err != nil {
		t.Fatal(err)
	}
	if got := f.notes.For(h.ID); len(got) != 0 {
		t.Errorf("completing must cancel reminders, got %+v", got)
	}

	if err := f.store.RemoveHabit(ctx, h.ID); err != nil {
		t.Fatal(err)
	}
	if calls := f.notes.Calls(); calls[len(calls)-1] != "cancel:"+h.ID {
		t.Errorf("removal must cancel reminders, got %v", calls)
	}
}

func TestPermissionDeniedSkipsScheduling(t *testing.T) {
	f := newFixture(t, nil, WithSeed(false))
	f.notes.Denied = true
	f.open(t)

	h, err := f.store.AddHabit(context.Background(), models.HabitDraft{
		Title: "Stretch", Category: models.CategoryHealth, PointsValue: 5, ReminderTime: "09:00",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := f.notes.For(h.ID); len(got) != 0 {
		t.Errorf("expected no reminders without permission, got %+v", got)
	}
}

func TestSchedulingFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t, nil, WithSeed(false))
	f.open(t)
	f.notes.FailSchedule = errors.New("platform unsupported")

	h, err := f.store.AddHabit(context.Background(), models.HabitDraft{
		Title: "Stretch", Category: models.CategoryHealth, PointsValue: 5, ReminderTime: "09:00",
	})
	if err != nil {
		t.Fatalf("AddHabit() error = %v", err)
	}
	if h.Status != models.StatusPending {
		t.Errorf("unexpected status %s", h.Status)
	}
}

func TestAddHabitValidation(t *testing.T) {
	f := newFixture(t, nil, WithSeed(false))
	f.open(t)
	ctx := context.Background()

	if _, err := f.store.AddHabit(ctx, models.HabitDraft{Title: "   "}); !errors.Is(err, validation.ErrInvalidDraft) {
		t.Errorf("expected ErrInvalidDraft for a blank title, got %v", err)
	}
	if _, err := f.store.AddHabit(ctx, models.HabitDraft{Title: "x", PointsValue: -1}); !errors.Is(err, validation.ErrInvalidDraft) {
		t.Errorf("expected ErrInvalidDraft for negative points, got %v", err)
	}

	h, err := f.store.AddHabit(ctx, models.HabitDraft{
		Title:      "  Floss ",
		Recurrence: models.NewRecurrence(models.EveryOtherDay{}),
	})
	if err != nil {
		t.Fatalf("AddHabit() error = %v", err)
	}
	if h.Title != "Floss" || h.Category != models.CategoryHabit || h.PointsValue != constants.DefaultPointsValue {
		t.Errorf("defaults not applied: %+v", h)
	}
	rule, ok := h.Rule().(models.EveryOtherDay)
	if !ok || rule.StartDate != "2026-10-16" {
		t.Errorf("expected rule anchored on today, got %#v", h.Rule())
	}
	if h.ID == "" || h.CreatedAt == nil {
		t.Errorf("expected id and creation time, got %+v", h)
	}
}

func TestUnpostponeAndSkippedViews(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t)
	ctx := context.Background()

	if _, err := f.store.Skip(ctx, "1"); err != nil {
		t.Fatal(err)
	}
	if got := f.store.Skipped(ctx); len(got) != 1 || got[0].ID != "1" {
		t.Errorf("unexpected skipped view %+v", got)
	}
	if got := f.store.Active(ctx); len(got) != 4 {
		t.Errorf("expected 4 active habits, got %d", len(got))
	}
	h, err := f.store.Unpostpone(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if h.Status != models.StatusPending {
		t.Errorf("unexpected status %s", h.Status)
	}
}

func TestReloadPicksUpExternalWrites(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t)
	ctx := context.Background()

	other := New(f.provider, scheduler.NewRecorder(), WithClock(f.clock.now), WithLocation(time.UTC))
	if err := other.Open(ctx); err != nil {
		t.Fatal(err)
	}
	if err := other.RemoveHabit(ctx, "2"); err != nil {
		t.Fatal(err)
	}

	f.notes.Reset()
	if err := f.store.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := f.store.Habits(ctx); len(got) != 4 {
		t.Errorf("expected 4 habits after reload, got %d", len(got))
	}
	found := false
	for _, c := range f.notes.Calls() {
		if c == "cancel:2" {
			found = true
		}
	}
	if !found {
		t.Error("expected reminders of the removed habit to be cancelled")
	}
}

func TestSharedProviderKeepsOtherWriters(t *testing.T) {
	a := newFixture(t, nil, WithSeed(false))
	a.open(t)
	ctx := context.Background()

	h0, err := a.store.AddHabit(ctx, models.HabitDraft{Title: "Run", Category: models.CategoryHealth, PointsValue: 10, ReminderTime: "18:00"})
	if err != nil {
		t.Fatal(err)
	}
	h1, err := a.store.AddHabit(ctx, models.HabitDraft{Title: "Read", Category: models.CategoryHabit, PointsValue: 5})
	if err != nil {
		t.Fatal(err)
	}

	b := New(a.provider, scheduler.NewRecorder(), WithClock(a.clock.now), WithLocation(time.UTC), WithSeed(false))
	if err := b.Open(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := b.ToggleCompletion(ctx, h0.ID); err != nil {
		t.Fatalf("B.ToggleCompletion() error = %v", err)
	}
	if _, err := a.store.ToggleCompletion(ctx, h1.ID); err != nil {
		t.Fatalf("A.ToggleCompletion() error = %v", err)
	}

	for _, p := range a.persistedHabits(t) {
		if p["status"] != string(models.StatusDone) {
			t.Errorf("habit %v persisted as %v, want done", p["title"], p["status"])
		}
	}
	if got := a.persistedStats(t).TotalPoints; got != 15 {
		t.Errorf("persisted points = %d, want 15", got)
	}
	if got := a.store.Stats(ctx).TotalPoints; got != 15 {
		t.Errorf("in-memory points = %d, want 15", got)
	}
	if got := a.notes.For(h0.ID); len(got) != 0 {
		t.Errorf("reminders of a habit completed elsewhere should be cancelled, got %+v", got)
	}
	if got := b.Habits(ctx); got[1].Status != models.StatusDone {
		t.Errorf("B should see the completion written by A, got %s", got[1].Status)
	}
}

func TestLookup(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t)
	ctx := context.Background()

	h, err := f.store.Lookup(ctx, "drink water")
	if err != nil || h.ID != "2" {
		t.Errorf("Lookup by title = %+v, %v", h, err)
	}
	if h, err := f.store.Lookup(ctx, "3"); err != nil || h.Title != "Stretching" {
		t.Errorf("Lookup by id = %+v, %v", h, err)
	}
	if _, err := f.store.Lookup(ctx, "Yoga"); !errors.Is(err, ErrHabitNotFound) {
		t.Errorf("expected ErrHabitNotFound, got %v", err)
	}

	if _, err := f.store.AddHabit(ctx, models.HabitDraft{Title: "Stretching", Category: models.CategoryHealth, PointsValue: 5}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.Lookup(ctx, "stretching"); !errors.Is(err, ErrAmbiguous) {
		t.Errorf("expected ErrAmbiguous, got %v", err)
	}
}

func TestRemindersPreview(t *testing.T) {
	f := newFixture(t, nil, WithSeed(false))
	f.open(t)
	ctx := context.Background()

	h, _ := f.store.AddHabit(ctx, models.HabitDraft{
		Title: "Late", Category: models.CategoryHabit, PointsValue: 1,
		ReminderTime: "22:00", ReminderEndTime: "02:00", ReminderFrequencyHours: 4,
	})
	triggers, err := f.store.Reminders(ctx, h.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(triggers) != 2 || triggers[0].Clock() != "22:00" || triggers[1].Clock() != "02:00" {
		t.Errorf("unexpected triggers %+v", triggers)
	}
	if _, err := f.store.Reminders(ctx, "missing"); !errors.Is(err, ErrHabitNotFound) {
		t.Errorf("expected ErrHabitNotFound, got %v", err)
	}
}

func TestGroupByCategory(t *testing.T) {
	habits := []models.Habit{
		{ID: "1", Category: models.CategoryHabit},
		{ID: "2", Category: "errands"},
		{ID: "3", Category: models.CategoryMorning},
		{ID: "4", Category: models.CategoryHabit},
	}
	groups := GroupByCategory(habits)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].Category != models.CategoryMorning || groups[1].Category != models.CategoryHabit {
		t.Errorf("groups out of order: %+v", groups)
	}
	if len(groups[1].Habits) != 2 {
		t.Errorf("expected 2 habits in %s", groups[1].Label)
	}
	if groups[2].Label != "Other Activities" || groups[2].Habits[0].ID != "2" {
		t.Errorf("unknown category not grouped last: %+v", groups[2])
	}
}
