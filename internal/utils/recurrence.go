package utils

import (
	"time"

	"github.com/julianstephens/habitflow/internal/models"
)

// IsDueToday determines if a habit should be presented as actionable on the
// given date. It is shared by the store views, the reminder sync and the
// TUI so every caller agrees on what "today" contains.
func IsDueToday(habit models.Habit, today time.Time) bool {
	due, _ := EvaluateDue(habit, today)
	return due
}

// EvaluateDue returns the due decision together with the habit as it should
// look afterwards: a postponed habit whose date has arrived comes back as
// pending with its postponement cleared. The input is never modified.
func EvaluateDue(habit models.Habit, today time.Time) (bool, models.Habit) {
	switch habit.Status {
	case models.StatusSkipped:
		return false, habit
	case models.StatusPostponed:
		if !PostponementReached(habit, today) {
			return false, habit
		}
		next := habit.Clone()
		next.Status = models.StatusPending
		next.PostponedUntil = ""
		return true, next
	}
	return RuleMatches(habit.Rule(), today), habit
}

// PostponementReached reports whether a postponed habit's date is today or
// earlier. An unreadable date counts as reached so the record heals itself.
func PostponementReached(habit models.Habit, today time.Time) bool {
	if habit.Status != models.StatusPostponed {
		return false
	}
	until, err := ParseDate(habit.PostponedUntil)
	if err != nil {
		return true
	}
	return !CalendarDate(today).Before(until)
}

// RuleMatches evaluates a recurrence rule on its own, ignoring status.
func RuleMatches(rule models.RecurrenceRule, today time.Time) bool {
	switch r := rule.(type) {
	case nil, models.Daily:
		return true
	case models.SpecificDays:
		if len(r.Days) == 0 {
			return true
		}
		return containsWeekday(r.Days, today.Weekday())
	case models.EveryOtherDay:
		start, err := ParseDate(r.StartDate)
		if err != nil {
			return true
		}
		// Dates before the anchor are never due, which sidesteps the sign of
		// modulo on negative offsets.
		diff := DaysBetween(start, today)
		return diff >= 0 && diff%2 == 0
	case models.Weekly:
		if len(r.Days) > 0 {
			return containsWeekday(r.Days, today.Weekday())
		}
		start, err := ParseDate(r.StartDate)
		if err != nil {
			return true
		}
		return today.Weekday() == start.Weekday()
	case models.Monthly:
		day := r.DayOfMonth
		if day == 0 {
			day = 1
		}
		return today.Day() == day
	default:
		return false
	}
}

func containsWeekday(days []time.Weekday, wd time.Weekday) bool {
	for _, d := range days {
		if d == wd {
			return true
		}
	}
	return false
}
