// Package lifecycle holds the habit state machine. Every function is pure:
// it takes a habit by value and returns the habit it should become, the
// change to the points ledger and what should happen to its reminders.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/utils"
)

// ErrInvalidTransition is returned when an event is not allowed from the
// habit's current status.
var ErrInvalidTransition = errors.New("invalid transition")

// Event names a lifecycle event. It is used in errors and logs.
type Event string

const (
	EventToggleComplete Event = "toggleComplete"
	EventPostpone       Event = "postpone"
	EventUnpostpone     Event = "unpostpone"
	EventSkip           Event = "skip"
	EventEditTimes      Event = "editTimes"
	EventRollover       Event = "rollover"
)

// ReminderAction says what the caller must do with a habit's scheduled
// reminders after applying a transition.
type ReminderAction int

const (
	ReminderKeep ReminderAction = iota
	ReminderCancel
	ReminderReschedule
)

func (a ReminderAction) String() string {
	switch a {
	case ReminderCancel:
		return "cancel"
	case ReminderReschedule:
		return "reschedule"
	default:
		return "keep"
	}
}

// Transition is the outcome of a lifecycle event.
type Transition struct {
	Habit       models.Habit
	PointsDelta int
	Reminders   ReminderAction
}

// TimesPatch carries an editTimes request. A nil field is left unchanged;
// an empty string or zero clears the field.
type TimesPatch struct {
	DueTime                *string
	ReminderTime           *string
	ReminderEndTime        *string
	ReminderFrequencyHours *int
}

// Empty reports whether the patch changes nothing.
func (p TimesPatch) Empty() bool {
	return p.DueTime == nil && p.ReminderTime == nil && p.ReminderEndTime == nil && p.ReminderFrequencyHours == nil
}

func invalid(h models.Habit, ev Event) error {
	return fmt.Errorf("%w: %s from %s (habit %s)", ErrInvalidTransition, ev, h.Status, h.ID)
}

// ToggleComplete completes a pending habit or undoes a completed one.
// Habits with a daily target above one count completions first and only
// become done (and earn points) when the count reaches the target.
func ToggleComplete(h models.Habit) (Transition, error) {
	switch h.Status {
	case models.StatusPending:
		next := h.Clone()
		if h.DailyTarget > 1 {
			next.DailyCompletions++
			if next.DailyCompletions < h.DailyTarget {
				return Transition{Habit: next, Reminders: ReminderKeep}, nil
			}
			next.DailyCompletions = h.DailyTarget
		}
		next.Status = models.StatusDone
		return Transition{Habit: next, PointsDelta: h.PointsValue, Reminders: ReminderCancel}, nil
	case models.StatusDone:
		next := h.Clone()
		next.Status = models.StatusPending
		next.DailyCompletions = 0
		return Transition{Habit: next, PointsDelta: -h.PointsValue, Reminders: ReminderKeep}, nil
	default:
		return Transition{}, invalid(h, EventToggleComplete)
	}
}

// Postpone defers a pending habit to until. A habit that is already
// postponed may be moved to a new date.
func Postpone(h models.Habit, until time.Time) (Transition, error) {
	if h.Status != models.StatusPending && h.Status != models.StatusPostponed {
		return Transition{}, invalid(h, EventPostpone)
	}
	next := h.Clone()
	next.Status = models.StatusPostponed
	next.PostponedUntil = utils.FormatDate(until)
	return Transition{Habit: next, Reminders: ReminderCancel}, nil
}

// Unpostpone brings a postponed or skipped habit back to pending.
func Unpostpone(h models.Habit) (Transition, error) {
	if h.Status != models.StatusPostponed && h.Status != models.StatusSkipped {
		return Transition{}, invalid(h, EventUnpostpone)
	}
	next := h.Clone()
	next.Status = models.StatusPending
	next.PostponedUntil = ""
	return Transition{Habit: next, Reminders: rescheduleIfTimed(next)}, nil
}

// Skip marks a pending habit as skipped for today.
func Skip(h models.Habit) (Transition, error) {
	if h.Status != models.StatusPending {
		return Transition{}, invalid(h, EventSkip)
	}
	next := h.Clone()
	next.Status = models.StatusSkipped
	return Transition{Habit: next, Reminders: ReminderCancel}, nil
}

// EditTimes patches the time fields of a pending or postponed habit. The
// status is left as is and reminders are always rebuilt.
func EditTimes(h models.Habit, patch TimesPatch) (Transition, error) {
	if h.Status != models.StatusPending && h.Status != models.StatusPostponed {
		return Transition{}, invalid(h, EventEditTimes)
	}
	next := h.Clone()
	if patch.DueTime != nil {
		next.DueTime = *patch.DueTime
	}
	if patch.ReminderTime != nil {
		next.ReminderTime = *patch.ReminderTime
	}
	if patch.ReminderEndTime != nil {
		next.ReminderEndTime = *patch.ReminderEndTime
	}
	if patch.ReminderFrequencyHours != nil {
		next.ReminderFrequencyHours = max(*patch.ReminderFrequencyHours, 0)
	}
	return Transition{Habit: next, Reminders: ReminderReschedule}, nil
}

// Rollover is the day-boundary reset. Done and skipped habits return to
// pending with their intraday counter cleared. Postponed habits are left
// for AdvancePostponed. Points are never touched.
func Rollover(h models.Habit) Transition {
	switch h.Status {
	case models.StatusDone, models.StatusSkipped:
		next := h.Clone()
		next.Status = models.StatusPending
		next.DailyCompletions = 0
		return Transition{Habit: next, Reminders: rescheduleIfTimed(next)}
	case models.StatusPending:
		if h.DailyCompletions != 0 {
			next := h.Clone()
			next.DailyCompletions = 0
			return Transition{Habit: next, Reminders: ReminderKeep}
		}
	}
	return Transition{Habit: h, Reminders: ReminderKeep}
}

// AdvancePostponed revives every postponed habit whose date has arrived.
// It returns a new collection and the ids it revived; when nothing changes
// the input slice is returned as is.
func AdvancePostponed(habits []models.Habit, today time.Time) ([]models.Habit, []string) {
	var (
		out     []models.Habit
		revived []string
	)
	for i, h := range habits {
		if !utils.PostponementReached(h, today) {
			if out != nil {
				out = append(out, h)
			}
			continue
		}
		if out == nil {
			out = make([]models.Habit, i, len(habits))
			copy(out, habits[:i])
		}
		_, next := utils.EvaluateDue(h, today)
		out = append(out, next)
		revived = append(revived, h.ID)
	}
	if out == nil {
		return habits, nil
	}
	return out, revived
}

func rescheduleIfTimed(h models.Habit) ReminderAction {
	if h.ReminderTime == "" {
		return ReminderKeep
	}
	return ReminderReschedule
}
