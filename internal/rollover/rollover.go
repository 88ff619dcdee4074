// Package rollover detects a calendar-day change since the last session and
// applies it to the streak ledger and the habit collection.
package rollover

import (
	"time"

	"github.com/julianstephens/habitflow/internal/lifecycle"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/utils"
)

type Outcome int

const (
	OutcomeSameDay Outcome = iota
	OutcomeContinued
	OutcomeBroken
	OutcomeClockSkew
	OutcomeFirstRun
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSameDay:
		return "same-day"
	case OutcomeContinued:
		return "continued"
	case OutcomeBroken:
		return "broken"
	case OutcomeClockSkew:
		return "clock-skew"
	case OutcomeFirstRun:
		return "first-run"
	default:
		return "unknown"
	}
}

// Result is the ledger and collection after a rollover. Changed is false
// only for OutcomeSameDay, in which case Stats and Habits are the inputs.
type Result struct {
	Stats       models.UserStats
	Habits      []models.Habit
	DaysElapsed int
	Outcome     Outcome
	Changed     bool
}

// Apply runs the daily rollover. It is pure: inputs are never modified.
func Apply(stats models.UserStats, habits []models.Habit, today time.Time) Result {
	todayStr := utils.FormatDate(today)
	if stats.LastLoginDate == todayStr {
		return Result{Stats: stats, Habits: habits, Outcome: OutcomeSameDay}
	}

	next := stats
	res := Result{Changed: true}

	diff, err := utils.DaysBetweenStrings(stats.LastLoginDate, todayStr)
	switch {
	case err != nil:
		res.Outcome = OutcomeFirstRun
	case diff == 1:
		res.Outcome = OutcomeContinued
		next.CurrentStreak++
		next.LongestStreak = max(next.LongestStreak, next.CurrentStreak)
	case diff > 1:
		res.Outcome = OutcomeBroken
		next.CurrentStreak = 0
	default:
		// A clock that moved backwards never costs the user their streak.
		res.Outcome = OutcomeClockSkew
	}
	if err == nil {
		res.DaysElapsed = diff
	}
	next.LastLoginDate = todayStr

	res.Stats = next
	res.Habits = make([]models.Habit, len(habits))
	for i, h := range habits {
		res.Habits[i] = lifecycle.Rollover(h).Habit
	}
	return res
}
