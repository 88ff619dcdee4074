package models

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusDone      Status = "done"
	StatusPostponed Status = "postponed"
	StatusSkipped   Status = "skipped"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusDone, StatusPostponed, StatusSkipped:
		return true
	}
	return false
}

// Category is a display grouping only; the core never branches on it.
type Category string

const (
	CategoryMorning Category = "morning"
	CategoryWork    Category = "work"
	CategoryHealth  Category = "health"
	CategoryChore   Category = "chore"
	CategoryHabit   Category = "habit"
)

// Categories lists the known categories in dashboard order.
var Categories = []Category{CategoryMorning, CategoryWork, CategoryHealth, CategoryChore, CategoryHabit}

// Known reports whether c is one of the fixed categories.
func (c Category) Known() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Label returns the section heading used when grouping habits.
func (c Category) Label() string {
	switch c {
	case CategoryMorning:
		return "Morning Routine"
	case CategoryWork:
		return "Work"
	case CategoryHealth:
		return "Health"
	case CategoryChore:
		return "Household Chores"
	case CategoryHabit:
		return "Good Habits"
	default:
		return "Other Activities"
	}
}

// Habit is a trackable activity. Field names on the wire follow the
// original mobile schema so existing snapshots load unchanged.
type Habit struct {
	ID                     string      `json:"id"`
	Title                  string      `json:"title"`
	Category               Category    `json:"category"`
	Status                 Status      `json:"status"`
	PointsValue            int         `json:"pointsValue"`
	Recurrence             *Recurrence `json:"recurrence,omitempty"`
	TimerMinutes           int         `json:"timerMinutes,omitempty"`
	DueTime                string      `json:"dueTime,omitempty"`         // HH:MM format
	ReminderTime           string      `json:"reminderTime,omitempty"`    // HH:MM format
	ReminderEndTime        string      `json:"reminderEndTime,omitempty"` // HH:MM format
	ReminderFrequencyHours int         `json:"reminderFrequencyHours,omitempty"`
	DailyTarget            int         `json:"dailyTarget,omitempty"`
	DailyCompletions       int         `json:"dailyCompletions,omitempty"`
	PostponedUntil         string      `json:"postponedUntil,omitempty"` // YYYY-MM-DD format
	CreatedAt              *time.Time  `json:"createdAt,omitempty"`
}

// Rule returns the habit's recurrence rule, defaulting to Daily.
func (h Habit) Rule() RecurrenceRule {
	if h.Recurrence == nil || h.Recurrence.Rule == nil {
		return Daily{}
	}
	return h.Recurrence.Rule
}

// Clone returns a copy of h that shares no mutable state with it.
func (h Habit) Clone() Habit {
	c := h
	if h.Recurrence != nil {
		r := h.Recurrence.clone()
		c.Recurrence = &r
	}
	if h.CreatedAt != nil {
		t := *h.CreatedAt
		c.CreatedAt = &t
	}
	return c
}
