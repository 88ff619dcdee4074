package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/lifecycle"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/utils"
)

// Recurrence choices offered by the add form.
const (
	repeatDaily    = "daily"
	repeatWeekdays = "weekdays"
	repeatWeekends = "weekends"
	repeatOtherDay = "every-other-day"
	repeatWeekly   = "weekly"
	repeatMonthly  = "monthly"
)

type AddFormModel struct {
	Title        string
	Category     models.Category
	Points       string
	Repeat       string
	DueTime      string
	ReminderTime string
}

type PostponeFormModel struct {
	Days int
}

type TimesFormModel struct {
	DueTime         string
	ReminderTime    string
	ReminderEndTime string
	Every           string
}

func validateOptionalTime(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if !utils.ValidateTimeFormat(s) {
		return fmt.Errorf("invalid time format, use HH:MM")
	}
	return nil
}

// NewAddForm creates a form for adding habits
func NewAddForm(fm *AddFormModel) *huh.Form {
	categories := make([]huh.Option[models.Category], len(models.Categories))
	for i, c := range models.Categories {
		categories[i] = huh.NewOption(c.Label(), c)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit Name").
				Value(&fm.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("habit name cannot be empty")
					}
					return nil
				}),
			huh.NewSelect[models.Category]().
				Title("Category").
				Options(categories...).
				Value(&fm.Category),
			huh.NewInput().
				Title("Points").
				Value(&fm.Points).
				Validate(func(s string) error {
					i, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil {
						return err
					}
					if i <= 0 {
						return fmt.Errorf("points must be a positive number")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Repeat").
				Options(
					huh.NewOption("Every day", repeatDaily),
					huh.NewOption("Weekdays", repeatWeekdays),
					huh.NewOption("Weekends", repeatWeekends),
					huh.NewOption("Every other day", repeatOtherDay),
					huh.NewOption("Weekly (today's weekday)", repeatWeekly),
					huh.NewOption("Monthly (today's date)", repeatMonthly),
				).
				Value(&fm.Repeat),
			huh.NewInput().
				Title("Due time (HH:MM)").
				Description("Optional").
				Value(&fm.DueTime).
				Validate(validateOptionalTime),
			huh.NewInput().
				Title("Reminder (HH:MM)").
				Description("Optional").
				Value(&fm.ReminderTime).
				Validate(validateOptionalTime),
		),
	).WithTheme(huh.ThemeDracula())
}

// Draft converts the form into a habit draft anchored on today.
func (fm *AddFormModel) Draft(today time.Time) models.HabitDraft {
	points, _ := strconv.Atoi(strings.TrimSpace(fm.Points))
	day := utils.FormatDate(today)

	var rule models.RecurrenceRule
	switch fm.Repeat {
	case repeatWeekdays:
		rule = models.SpecificDays{Days: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}}
	case repeatWeekends:
		rule = models.SpecificDays{Days: []time.Weekday{time.Saturday, time.Sunday}}
	case repeatOtherDay:
		rule = models.EveryOtherDay{StartDate: day}
	case repeatWeekly:
		rule = models.Weekly{Days: []time.Weekday{today.Weekday()}, StartDate: day}
	case repeatMonthly:
		rule = models.Monthly{DayOfMonth: today.Day()}
	default:
		rule = models.Daily{}
	}

	return models.HabitDraft{
		Title:        strings.TrimSpace(fm.Title),
		Category:     fm.Category,
		PointsValue:  points,
		Recurrence:   models.NewRecurrence(rule),
		DueTime:      strings.TrimSpace(fm.DueTime),
		ReminderTime: strings.TrimSpace(fm.ReminderTime),
	}
}

func newAddFormModel() *AddFormModel {
	return &AddFormModel{
		Category: models.Category(constants.DefaultCategory),
		Points:   strconv.Itoa(constants.DefaultPointsValue),
		Repeat:   repeatDaily,
	}
}

// NewPostponeForm creates a form for choosing how long to postpone a habit
func NewPostponeForm(title string, fm *PostponeFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Postpone " + title).
				Options(
					huh.NewOption("Tomorrow", 1),
					huh.NewOption("In 2 days", 2),
					huh.NewOption("In 3 days", 3),
					huh.NewOption("Next week", 7),
				).
				Value(&fm.Days),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewTimesForm creates a form for editing a habit's due and reminder times
func NewTimesForm(title string, fm *TimesFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(title).
				Description("Leave a field empty to clear it"),
			huh.NewInput().
				Title("Due time (HH:MM)").
				Value(&fm.DueTime).
				Validate(validateOptionalTime),
			huh.NewInput().
				Title("Reminder (HH:MM)").
				Value(&fm.ReminderTime).
				Validate(validateOptionalTime),
			huh.NewInput().
				Title("Repeat until (HH:MM)").
				Value(&fm.ReminderEndTime).
				Validate(validateOptionalTime),
			huh.NewInput().
				Title("Repeat every (hours)").
				Value(&fm.Every).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					i, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil {
						return err
					}
					if i < 0 || i > 24 {
						return fmt.Errorf("interval must be 0-24 hours")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
}

func newTimesFormModel(h models.Habit) *TimesFormModel {
	fm := &TimesFormModel{
		DueTime:         h.DueTime,
		ReminderTime:    h.ReminderTime,
		ReminderEndTime: h.ReminderEndTime,
	}
	if h.ReminderFrequencyHours > 0 {
		fm.Every = strconv.Itoa(h.ReminderFrequencyHours)
	}
	return fm
}

// Patch returns the fields that differ from h.
func (fm *TimesFormModel) Patch(h models.Habit) lifecycle.TimesPatch {
	var p lifecycle.TimesPatch
	if v := strings.TrimSpace(fm.DueTime); v != h.DueTime {
		p.DueTime = &v
	}
	if v := strings.TrimSpace(fm.ReminderTime); v != h.ReminderTime {
		p.ReminderTime = &v
	}
	if v := strings.TrimSpace(fm.ReminderEndTime); v != h.ReminderEndTime {
		p.ReminderEndTime = &v
	}
	every, _ := strconv.Atoi(strings.TrimSpace(fm.Every))
	if every != h.ReminderFrequencyHours {
		p.ReminderFrequencyHours = &every
	}
	return p
}
