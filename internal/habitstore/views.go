package habitstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/reminders"
	"github.com/julianstephens/habitflow/internal/utils"
)

// CategoryGroup is one dashboard section.
type CategoryGroup struct {
	Category models.Category
	Label    string
	Habits   []models.Habit
}

// view syncs the store and returns a filtered copy of the collection.
func (s *Store) view(ctx context.Context, keep func(h models.Habit, today time.Time) bool) []models.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()

	today, err := s.sync(ctx)
	if err != nil {
		return nil
	}
	out := make([]models.Habit, 0, len(s.habits))
	for _, h := range s.habits {
		if keep == nil || keep(h, today) {
			out = append(out, h.Clone())
		}
	}
	return out
}

func (s *Store) isDue(h models.Habit, today time.Time) bool {
	switch h.Status {
	case models.StatusPending, models.StatusDone:
		return utils.IsDueToday(h, today) || s.carried[h.ID] == utils.FormatDate(today)
	}
	return false
}

// Habits returns the whole collection.
func (s *Store) Habits(ctx context.Context) []models.Habit {
	return s.view(ctx, nil)
}

// Stats returns the ledger.
func (s *Store) Stats(ctx context.Context) models.UserStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.sync(ctx); err != nil {
		return models.UserStats{}
	}
	return s.stats
}

// DueToday lists habits scheduled for today, done or not.
func (s *Store) DueToday(ctx context.Context) []models.Habit {
	return s.view(ctx, s.isDue)
}

// Active lists habits due today that are still pending.
func (s *Store) Active(ctx context.Context) []models.Habit {
	return s.view(ctx, func(h models.Habit, today time.Time) bool {
		return h.Status == models.StatusPending && s.isDue(h, today)
	})
}

// CompletedToday lists habits due today that are done.
func (s *Store) CompletedToday(ctx context.Context) []models.Habit {
	return s.view(ctx, func(h models.Habit, today time.Time) bool {
		return h.Status == models.StatusDone && s.isDue(h, today)
	})
}

// ScheduledToday lists the habits that get reminders today. Habits revived
// from postponement today are included whatever their recurrence says.
func (s *Store) ScheduledToday(ctx context.Context) []models.Habit {
	return s.view(ctx, s.wantsReminders)
}

// Postponed lists habits waiting for their postponement date.
func (s *Store) Postponed(ctx context.Context) []models.Habit {
	return s.view(ctx, func(h models.Habit, _ time.Time) bool {
		return h.Status == models.StatusPostponed
	})
}

// Skipped lists habits skipped today.
func (s *Store) Skipped(ctx context.Context) []models.Habit {
	return s.view(ctx, func(h models.Habit, _ time.Time) bool {
		return h.Status == models.StatusSkipped
	})
}

// Get returns one habit by id.
func (s *Store) Get(ctx context.Context, id string) (models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.sync(ctx); err != nil {
		return models.Habit{}, err
	}
	if idx := s.indexOf(id); idx >= 0 {
		return s.habits[idx].Clone(), nil
	}
	return models.Habit{}, fmt.Errorf("%w: %s", ErrHabitNotFound, id)
}

// Lookup resolves a reference typed by a user: an exact id, a unique id
// prefix or a case-insensitive title.
func (s *Store) Lookup(ctx context.Context, ref string) (models.Habit, error) {
	ref = strings.TrimSpace(ref)
	all := s.Habits(ctx)

	for _, h := range all {
		if h.ID == ref {
			return h, nil
		}
	}

	var matches []models.Habit
	for _, h := range all {
		if strings.EqualFold(h.Title, ref) {
			matches = append(matches, h)
		}
	}
	if len(matches) == 0 && len(ref) >= 4 {
		for _, h := range all {
			if strings.HasPrefix(h.ID, ref) {
				matches = append(matches, h)
			}
		}
	}

	switch len(matches) {
	case 0:
		return models.Habit{}, fmt.Errorf("%w: %s", ErrHabitNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return models.Habit{}, fmt.Errorf("%w: %q matches %d habits, use the id", ErrAmbiguous, ref, len(matches))
	}
}

// Reminders previews the reminder times a habit would get.
func (s *Store) Reminders(ctx context.Context, id string) ([]reminders.Trigger, error) {
	h, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return reminders.ComputeTriggers(h), nil
}

// GroupByCategory splits habits into dashboard sections in category order.
// Habits with a category this build does not know are kept in a trailing
// section. Empty sections are left out.
func GroupByCategory(habits []models.Habit) []CategoryGroup {
	byCat := make(map[models.Category][]models.Habit)
	var other []models.Habit
	for _, h := range habits {
		if h.Category.Known() {
			byCat[h.Category] = append(byCat[h.Category], h)
		} else {
			other = append(other, h)
		}
	}

	var groups []CategoryGroup
	for _, c := range models.Categories {
		if hs := byCat[c]; len(hs) > 0 {
			groups = append(groups, CategoryGroup{Category: c, Label: c.Label(), Habits: hs})
		}
	}
	if len(other) > 0 {
		groups = append(groups, CategoryGroup{Label: models.Category("").Label(), Habits: other})
	}
	return groups
}
