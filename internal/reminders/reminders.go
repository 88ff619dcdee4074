// Package reminders expands a habit's reminder settings into the list of
// times of day at which a notification should fire.
package reminders

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/utils"
)

// MaxTriggersPerDay bounds the fan-out of a single habit.
const MaxTriggersPerDay = constants.MaxRemindersPerDay

const endOfDay = 23*60 + 59

// Trigger is one reminder occurrence within a day. Overnight triggers
// belong to a window that crossed midnight and fire on the following
// calendar day.
type Trigger struct {
	Ordinal   int
	Hour      int
	Minute    int
	Title     string
	Body      string
	Overnight bool
}

// Clock renders the trigger as HH:MM.
func (t Trigger) Clock() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ComputeTriggers returns the ordered reminder times for h. A habit without
// a reminder time, or with an unreadable one, yields nothing.
func ComputeTriggers(h models.Habit) []Trigger {
	if h.ReminderTime == "" {
		return nil
	}
	start, err := utils.ParseTimeToMinutes(h.ReminderTime)
	if err != nil {
		return nil
	}

	freq := max(h.ReminderFrequencyHours, 0)
	if freq == 0 {
		return []Trigger{newTrigger(1, start, h.Title)}
	}

	end := endOfDay
	if h.ReminderEndTime != "" {
		if m, err := utils.ParseTimeToMinutes(h.ReminderEndTime); err == nil {
			end = m
		}
	}
	if end < start {
		end += 24 * 60
	}

	step := freq * 60
	var out []Trigger
	for cur := start; cur <= end && len(out) < MaxTriggersPerDay; cur += step {
		out = append(out, newTrigger(len(out)+1, cur, h.Title))
	}
	return out
}

// ShouldSchedule reports whether reminders should exist for h today.
// carried marks a habit revived from postponement today, which stays due
// whatever its recurrence says.
func ShouldSchedule(h models.Habit, today time.Time, carried bool) bool {
	if h.Status != models.StatusPending || h.ReminderTime == "" {
		return false
	}
	return carried || utils.IsDueToday(h, today)
}

func newTrigger(ordinal, minutes int, title string) Trigger {
	overnight := minutes >= 24*60
	minutes %= 24 * 60
	return Trigger{
		Ordinal:   ordinal,
		Hour:      minutes / 60,
		Minute:    minutes % 60,
		Title:     Label(ordinal),
		Body:      constants.ReminderBodyPrefix + title,
		Overnight: overnight,
	}
}

// Label is the notification title for the Nth reminder of a day.
func Label(ordinal int) string {
	if ordinal <= 1 {
		return constants.ReminderTitle
	}
	return fmt.Sprintf("%s %d", constants.ReminderTitle, ordinal)
}
