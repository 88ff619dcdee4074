// Package habitstore owns the habit collection and the streak ledger. It
// loads a snapshot from a storage.Provider, runs the daily rollover, applies
// lifecycle transitions on behalf of the user and keeps the notification
// capability in step with what is due.
//
// Every mutation builds a new collection and swaps it in. The in-memory
// swap happens before the snapshot write, and failed writes or reminder
// calls are logged without failing the mutation.
package habitstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/lifecycle"
	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/reminders"
	"github.com/julianstephens/habitflow/internal/rollover"
	"github.com/julianstephens/habitflow/internal/storage"
	"github.com/julianstephens/habitflow/internal/utils"
	"github.com/julianstephens/habitflow/internal/validation"
)

var (
	// ErrHabitNotFound is returned for an id (or title) that matches no habit.
	ErrHabitNotFound = errors.New("habit not found")
	// ErrAmbiguous is returned by Lookup when a title matches several habits.
	ErrAmbiguous = errors.New("reference matches more than one habit")
	// ErrNotOpen is returned when the store is used before Open.
	ErrNotOpen = errors.New("habit store not open")
)

// Notifications is the platform capability that delivers reminders. None
// of its failures are fatal to the store.
type Notifications interface {
	RequestPermission(ctx context.Context) bool
	Schedule(ctx context.Context, habitID, title, body string, hour, minute int) (string, error)
	// ScheduleAt books a single delivery at an exact instant. Reminders
	// that fall after midnight use it.
	ScheduleAt(ctx context.Context, habitID, title, body string, at time.Time) (string, error)
	CancelAllForHabit(ctx context.Context, habitID string) error
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the timezone "today" is computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithSeed controls whether an empty provider is filled with the starter
// habits.
func WithSeed(enabled bool) Option {
	return func(s *Store) { s.seed = enabled }
}

// WithLogger routes store diagnostics to l.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRetryDelay overrides the pause between snapshot write attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Store) { s.retryDelay = d }
}

// Store is the single writer of habits and stats.
type Store struct {
	provider  storage.Provider
	notes     Notifications
	validator *validation.Validator
	log       *log.Logger

	now        func() time.Time
	loc        *time.Location
	seed       bool
	retryDelay time.Duration

	mu        sync.Mutex
	open      bool
	habits    []models.Habit
	stats     models.UserStats
	carried   map[string]string
	revision  string
	permitted bool
	degraded  error
	last      rollover.Result

	// tails holds the after-midnight triggers of yesterday's reminder
	// windows, valid on tailsDay only.
	tails    map[string][]reminders.Trigger
	tailsDay string
}

// New builds a Store. Call Open before using it.
func New(provider storage.Provider, notes Notifications, opts ...Option) *Store {
	s := &Store{
		provider:   provider,
		notes:      notes,
		validator:  validation.New(),
		log:        logger.With("component", "habitstore"),
		now:        time.Now,
		loc:        time.Local,
		seed:       true,
		retryDelay: constants.PersistRetryDelay,
		carried:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// today is the current calendar date in the store's timezone.
func (s *Store) today() time.Time {
	return utils.CalendarDate(s.now().In(s.loc))
}

// Today exposes the store's notion of the current date.
func (s *Store) Today() time.Time {
	return s.today()
}

// Open loads the snapshot, runs the daily rollover and syncs reminders.
// Views are only served once the rollover has been applied and written.
func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()
	snap, err := s.loadSnapshot(today, s.seed)
	if err != nil {
		return err
	}
	s.habits, s.stats, s.carried, s.revision = snap.habits, snap.stats, snap.carried, snap.revision
	s.open = true

	res := s.applyRollover(today)
	advanced := s.advance(today)
	if res.Changed || advanced || snap.dirty {
		s.persist(ctx)
	}

	s.permitted = s.notes.RequestPermission(ctx)
	if !s.permitted {
		s.log.Warn("Notification permission denied, reminders disabled")
	}
	s.resyncAll(ctx, nil, today)
	return nil
}

// Reload re-reads the snapshot after an external write. Reminders for
// habits that disappeared are cancelled.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNotOpen
	}

	today := s.today()
	snap, err := s.loadSnapshot(today, false)
	if err != nil {
		return err
	}
	previous := s.habits
	s.habits, s.stats, s.carried, s.revision = snap.habits, snap.stats, snap.carried, snap.revision

	res := s.applyRollover(today)
	advanced := s.advance(today)
	if res.Changed || advanced {
		s.persist(ctx)
	}
	s.resyncAll(ctx, previous, today)
	s.log.Debug("Reloaded snapshot", "habits", len(s.habits))
	return nil
}

// Rollover runs the daily ledger again. The daemon calls it at midnight.
func (s *Store) Rollover(ctx context.Context) (rollover.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return rollover.Result{}, ErrNotOpen
	}

	today := s.today()
	previous, caught, err := s.catchUp(today)
	if err != nil {
		return rollover.Result{}, err
	}
	res := s.applyRollover(today)
	advanced := s.advance(today)
	if res.Changed || advanced {
		s.persist(ctx)
	}
	if res.Changed || advanced || caught {
		s.resyncAll(ctx, previous, today)
	}
	return res, nil
}

// applyRollover swaps in the rolled-over ledger and collection.
func (s *Store) applyRollover(today time.Time) rollover.Result {
	res := rollover.Apply(s.stats, s.habits, today)
	if !res.Changed {
		return res
	}
	s.collectTails(today)
	s.last = res
	s.stats, s.habits = res.Stats, res.Habits
	s.pruneCarried(today)
	s.log.Info("Daily rollover",
		"outcome", res.Outcome,
		"days", res.DaysElapsed,
		"streak", s.stats.CurrentStreak,
		"longest", s.stats.LongestStreak)
	return res
}

// LastRollover reports the most recent rollover that changed state.
func (s *Store) LastRollover() rollover.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Degraded returns the last persistence failure, or nil when the latest
// snapshot write succeeded.
func (s *Store) Degraded() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// advance revives postponed habits whose date has arrived. Revived habits
// are marked as carried so they stay due for the rest of today.
func (s *Store) advance(today time.Time) bool {
	next, revived := lifecycle.AdvancePostponed(s.habits, today)
	if len(revived) == 0 {
		return false
	}
	s.habits = next
	day := utils.FormatDate(today)
	for _, id := range revived {
		s.carried[id] = day
	}
	s.log.Info("Postponed habits are due again", "ids", strings.Join(revived, ","))
	return true
}

func (s *Store) pruneCarried(today time.Time) {
	day := utils.FormatDate(today)
	for id, d := range s.carried {
		if d != day {
			delete(s.carried, id)
		}
	}
}

// sync runs ahead of every view and mutation. A snapshot written by
// another process since the last read or write is loaded first, so a
// mutation never overwrites it. A day boundary crossed while the store is
// open triggers a full rollover; otherwise postponed habits whose date
// arrived are revived and committed.
func (s *Store) sync(ctx context.Context) (time.Time, error) {
	if !s.open {
		return time.Time{}, ErrNotOpen
	}
	today := s.today()
	replaced, caught, err := s.catchUp(today)
	if err != nil {
		return time.Time{}, err
	}
	if utils.FormatDate(today) != s.stats.LastLoginDate {
		s.applyRollover(today)
		s.advance(today)
		s.persist(ctx)
		s.resyncAll(ctx, replaced, today)
		return today, nil
	}
	if caught {
		if s.advance(today) {
			s.persist(ctx)
		}
		s.resyncAll(ctx, replaced, today)
		return today, nil
	}

	previous := s.habits
	if s.advance(today) {
		s.persist(ctx)
		for i, h := range s.habits {
			if previous[i].Status == models.StatusPostponed && h.Status == models.StatusPending {
				s.reconcile(ctx, h, lifecycle.ReminderReschedule, today)
			}
		}
	}
	return today, nil
}

func (s *Store) indexOf(id string) int {
	for i, h := range s.habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}

// commit swaps in a transition's habit, adjusts points, writes the
// snapshot and then reconciles reminders.
func (s *Store) commit(ctx context.Context, idx int, tr lifecycle.Transition, today time.Time) models.Habit {
	next := make([]models.Habit, len(s.habits))
	copy(next, s.habits)
	next[idx] = tr.Habit
	s.habits = next

	if tr.PointsDelta != 0 {
		s.stats.TotalPoints += tr.PointsDelta
	}
	s.persist(ctx)
	s.reconcile(ctx, tr.Habit, tr.Reminders, today)
	return tr.Habit.Clone()
}

// mutate looks up id, applies fn and commits the result. Invalid
// transitions and unknown ids are logged and leave state untouched.
func (s *Store) mutate(ctx context.Context, id string, ev lifecycle.Event, fn func(models.Habit) (lifecycle.Transition, error)) (models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today, err := s.sync(ctx)
	if err != nil {
		return models.Habit{}, err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		s.log.Warn("Ignoring action on unknown habit", "event", ev, "id", id)
		return models.Habit{}, fmt.Errorf("%w: %s", ErrHabitNotFound, id)
	}
	tr, err := fn(s.habits[idx])
	if err != nil {
		s.log.Warn("Ignoring invalid transition", "event", ev, "id", id, "error", err)
		return s.habits[idx].Clone(), err
	}
	if ev != lifecycle.EventToggleComplete && ev != lifecycle.EventEditTimes {
		delete(s.carried, id)
	}
	h := s.commit(ctx, idx, tr, today)
	s.log.Debug("Habit updated", "event", ev, "id", id, "status", h.Status, "points", tr.PointsDelta)
	return h, nil
}

// ToggleCompletion completes a pending habit or undoes a completion.
func (s *Store) ToggleCompletion(ctx context.Context, id string) (models.Habit, error) {
	return s.mutate(ctx, id, lifecycle.EventToggleComplete, lifecycle.ToggleComplete)
}

// Postpone defers a habit until the given date.
func (s *Store) Postpone(ctx context.Context, id string, until time.Time) (models.Habit, error) {
	until = utils.CalendarDate(until)
	if !until.After(s.today()) {
		return models.Habit{}, fmt.Errorf("postpone date %s must be after today", utils.FormatDate(until))
	}
	return s.mutate(ctx, id, lifecycle.EventPostpone, func(h models.Habit) (lifecycle.Transition, error) {
		return lifecycle.Postpone(h, until)
	})
}

// Unpostpone returns a postponed or skipped habit to pending.
func (s *Store) Unpostpone(ctx context.Context, id string) (models.Habit, error) {
	return s.mutate(ctx, id, lifecycle.EventUnpostpone, lifecycle.Unpostpone)
}

// Skip skips a pending habit for today.
func (s *Store) Skip(ctx context.Context, id string) (models.Habit, error) {
	return s.mutate(ctx, id, lifecycle.EventSkip, lifecycle.Skip)
}

// EditTimes patches the due and reminder times of a habit.
func (s *Store) EditTimes(ctx context.Context, id string, patch lifecycle.TimesPatch) (models.Habit, error) {
	for _, v := range []*string{patch.DueTime, patch.ReminderTime, patch.ReminderEndTime} {
		if v != nil && *v != "" && !utils.ValidateTimeFormat(*v) {
			return models.Habit{}, fmt.Errorf("%w: invalid time %q, expected HH:MM", validation.ErrInvalidDraft, *v)
		}
	}
	return s.mutate(ctx, id, lifecycle.EventEditTimes, func(h models.Habit) (lifecycle.Transition, error) {
		return lifecycle.EditTimes(h, patch)
	})
}

// AddHabit validates a draft and appends it as a new pending habit.
// EveryOtherDay and Weekly rules without a start date are anchored on
// today.
func (s *Store) AddHabit(ctx context.Context, draft models.HabitDraft) (models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today, err := s.sync(ctx)
	if err != nil {
		return models.Habit{}, err
	}

	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Category == "" {
		draft.Category = models.Category(constants.DefaultCategory)
	}
	if draft.PointsValue == 0 {
		draft.PointsValue = constants.DefaultPointsValue
	}
	draft.Recurrence = anchorRecurrence(draft.Recurrence, today)
	if err := s.validator.ValidateDraft(draft); err != nil {
		return models.Habit{}, err
	}

	created := s.now()
	h := models.Habit{
		ID:                     uuid.NewString(),
		Title:                  draft.Title,
		Category:               draft.Category,
		Status:                 models.StatusPending,
		PointsValue:            draft.PointsValue,
		Recurrence:             draft.Recurrence,
		TimerMinutes:           draft.TimerMinutes,
		DueTime:                draft.DueTime,
		ReminderTime:           draft.ReminderTime,
		ReminderEndTime:        draft.ReminderEndTime,
		ReminderFrequencyHours: draft.ReminderFrequencyHours,
		DailyTarget:            draft.DailyTarget,
		CreatedAt:              &created,
	}

	next := make([]models.Habit, len(s.habits), len(s.habits)+1)
	copy(next, s.habits)
	s.habits = append(next, h)
	s.persist(ctx)
	s.reconcile(ctx, h, lifecycle.ReminderReschedule, today)
	s.log.Info("Habit added", "id", h.ID, "title", h.Title)
	return h.Clone(), nil
}

func anchorRecurrence(r *models.Recurrence, today time.Time) *models.Recurrence {
	if r == nil {
		return nil
	}
	day := utils.FormatDate(today)
	switch rule := r.Rule.(type) {
	case models.EveryOtherDay:
		if rule.StartDate == "" {
			rule.StartDate = day
		}
		return models.NewRecurrence(rule)
	case models.Weekly:
		if len(rule.Days) == 0 && rule.StartDate == "" {
			rule.StartDate = day
		}
		return models.NewRecurrence(rule)
	}
	return r
}

// RemoveHabit cancels a habit's reminders and deletes it.
func (s *Store) RemoveHabit(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.sync(ctx); err != nil {
		return err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		s.log.Warn("Ignoring removal of unknown habit", "id", id)
		return fmt.Errorf("%w: %s", ErrHabitNotFound, id)
	}

	s.cancel(ctx, id)
	next := make([]models.Habit, 0, len(s.habits)-1)
	next = append(next, s.habits[:idx]...)
	next = append(next, s.habits[idx+1:]...)
	s.habits = next
	delete(s.carried, id)
	delete(s.tails, id)
	s.persist(ctx)
	s.log.Info("Habit removed", "id", id)
	return nil
}

// Close releases the provider.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return s.provider.Close()
}
