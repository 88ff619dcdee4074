package models

// HabitDraft is the input for creating a habit. ID and status are assigned
// by the store.
type HabitDraft struct {
	Title                  string      `json:"title" validate:"required,max=120"`
	Category               Category    `json:"category" validate:"required,category"`
	PointsValue            int         `json:"pointsValue" validate:"gt=0,lte=1000"`
	Recurrence             *Recurrence `json:"recurrence,omitempty" validate:"omitempty,recurrence"`
	TimerMinutes           int         `json:"timerMinutes,omitempty" validate:"gte=0,lte=1440"`
	DueTime                string      `json:"dueTime,omitempty" validate:"omitempty,hhmm"`
	ReminderTime           string      `json:"reminderTime,omitempty" validate:"omitempty,hhmm"`
	ReminderEndTime        string      `json:"reminderEndTime,omitempty" validate:"omitempty,hhmm"`
	ReminderFrequencyHours int         `json:"reminderFrequencyHours,omitempty" validate:"gte=0,lte=24"`
	DailyTarget            int         `json:"dailyTarget,omitempty" validate:"gte=0,lte=100"`
}
