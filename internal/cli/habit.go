package cli

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitflow/internal/habitstore"
	"github.com/julianstephens/habitflow/internal/lifecycle"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/scheduler"
	"github.com/julianstephens/habitflow/internal/utils"
)

// openForCommand opens the habit store for a one-shot command. Reminders
// are recorded, not delivered: the notify daemon owns delivery and picks
// the change up from the store.
func (c *Context) openForCommand() (*habitstore.Store, error) {
	return c.OpenHabits(scheduler.NewRecorder())
}

type AddCmd struct {
	Title      string `arg:"" help:"Habit title."`
	Category   string `short:"c" help:"Category (morning|work|health|chore|habit)." default:"habit"`
	Points     int    `short:"p" help:"Points awarded on completion." default:"10"`
	Recurrence string `short:"r" help:"Recurrence (daily|days|every-other-day|weekly|monthly)." default:"daily"`
	Days       string `short:"w" help:"Comma-separated weekdays for days and weekly recurrence."`
	Start      string `help:"Start date (YYYY-MM-DD) for every-other-day and weekly recurrence. Defaults to today."`
	DayOfMonth int    `help:"Day of month for monthly recurrence."`
	Due        string `help:"Due time (HH:MM)."`
	Remind     string `help:"First reminder time (HH:MM)."`
	RemindEnd  string `help:"Last reminder time (HH:MM)."`
	Every      int    `help:"Hours between reminders."`
	Target     int    `help:"Completions needed per day."`
	Timer      int    `help:"Timer length in minutes."`
}

func (c *AddCmd) Run(ctx *Context) error {
	rule, err := ParseRecurrence(c.Recurrence, c.Days, c.Start, c.DayOfMonth)
	if err != nil {
		return err
	}

	hs, err := ctx.openForCommand()
	if err != nil {
		return err
	}
	defer hs.Close()

	h, err := hs.AddHabit(ctx.Base, models.HabitDraft{
		Title:                  c.Title,
		Category:               models.Category(strings.ToLower(c.Category)),
		PointsValue:            c.Points,
		Recurrence:             models.NewRecurrence(rule),
		TimerMinutes:           c.Timer,
		DueTime:                c.Due,
		ReminderTime:           c.Remind,
		ReminderEndTime:        c.RemindEnd,
		ReminderFrequencyHours: c.Every,
		DailyTarget:            c.Target,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "Added habit: %s (ID: %s)\n", h.Title, h.ID)
	return nil
}

type ListCmd struct {
	All bool `short:"a" help:"Show every habit, not only those due today."`
}

func (c *ListCmd) Run(ctx *Context) error {
	hs, err := ctx.openForCommand()
	if err != nil {
		return err
	}
	defer hs.Close()

	var habits []models.Habit
	if c.All {
		habits = hs.Habits(ctx.Base)
	} else {
		habits = append(hs.DueToday(ctx.Base), hs.Postponed(ctx.Base)...)
		habits = append(habits, hs.Skipped(ctx.Base)...)
	}
	if len(habits) == 0 {
		fmt.Fprintln(ctx.Out, "No habits found")
		return nil
	}

	for _, g := range habitstore.GroupByCategory(habits) {
		fmt.Fprintf(ctx.Out, "%s:\n", g.Label)
		for _, h := range g.Habits {
			fmt.Fprintf(ctx.Out, "  [%s] %-8s %s (%d pts, %s)", statusMark(h.Status), shortID(h.ID), h.Title, h.PointsValue, models.FormatRecurrence(h.Rule()))
			switch {
			case h.Status == models.StatusPostponed:
				fmt.Fprintf(ctx.Out, " until %s", h.PostponedUntil)
			case h.DailyTarget > 1:
				fmt.Fprintf(ctx.Out, " %d/%d", h.DailyCompletions, h.DailyTarget)
			}
			if h.DueTime != "" {
				fmt.Fprintf(ctx.Out, " due %s", h.DueTime)
			}
			fmt.Fprintln(ctx.Out)
		}
	}
	return nil
}

// lookupAndApply resolves ref and applies one mutation.
func lookupAndApply(ctx *Context, ref string, apply func(hs *habitstore.Store, id string) (models.Habit, error)) (models.Habit, error) {
	hs, err := ctx.openForCommand()
	if err != nil {
		return models.Habit{}, err
	}
	defer hs.Close()

	target, err := hs.Lookup(ctx.Base, ref)
	if err != nil {
		return models.Habit{}, err
	}
	return apply(hs, target.ID)
}

type DoneCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or title."`
}

func (c *DoneCmd) Run(ctx *Context) error {
	h, err := lookupAndApply(ctx, c.Habit, func(hs *habitstore.Store, id string) (models.Habit, error) {
		return hs.ToggleCompletion(ctx.Base, id)
	})
	if err != nil {
		return err
	}
	switch {
	case h.Status == models.StatusDone:
		fmt.Fprintf(ctx.Out, "✓ %s done (+%d pts)\n", h.Title, h.PointsValue)
	case h.DailyCompletions > 0:
		fmt.Fprintf(ctx.Out, "%s: %d/%d today\n", h.Title, h.DailyCompletions, h.DailyTarget)
	default:
		fmt.Fprintf(ctx.Out, "Unmarked %s (-%d pts)\n", h.Title, h.PointsValue)
	}
	return nil
}

type PostponeCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or title."`
	Until string `arg:"" optional:"" help:"Date to postpone to (YYYY-MM-DD, tomorrow or +N)." default:"tomorrow"`
}

func (c *PostponeCmd) Run(ctx *Context) error {
	today := utils.CalendarDate(ctx.Now().In(ctx.Location))
	until, err := ParseDateArg(c.Until, today)
	if err != nil {
		return err
	}
	h, err := lookupAndApply(ctx, c.Habit, func(hs *habitstore.Store, id string) (models.Habit, error) {
		return hs.Postpone(ctx.Base, id, until)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Postponed %s until %s\n", h.Title, h.PostponedUntil)
	return nil
}

type UnpostponeCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or title."`
}

func (c *UnpostponeCmd) Run(ctx *Context) error {
	h, err := lookupAndApply(ctx, c.Habit, func(hs *habitstore.Store, id string) (models.Habit, error) {
		return hs.Unpostpone(ctx.Base, id)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "%s is back for today\n", h.Title)
	return nil
}

type SkipCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or title."`
}

func (c *SkipCmd) Run(ctx *Context) error {
	h, err := lookupAndApply(ctx, c.Habit, func(hs *habitstore.Store, id string) (models.Habit, error) {
		return hs.Skip(ctx.Base, id)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Skipped %s for today\n", h.Title)
	return nil
}

type TimesCmd struct {
	Habit     string  `arg:"" help:"Habit id, id prefix or title."`
	Due       *string `help:"Due time (HH:MM, empty to clear)."`
	Remind    *string `help:"First reminder time (HH:MM, empty to clear)."`
	RemindEnd *string `help:"Last reminder time (HH:MM, empty to clear)."`
	Every     *int    `help:"Hours between reminders (0 for a single reminder)."`
}

func (c *TimesCmd) Validate() error {
	if c.Due == nil && c.Remind == nil && c.RemindEnd == nil && c.Every == nil {
		return fmt.Errorf("nothing to change: pass at least one of --due, --remind, --remind-end, --every")
	}
	return nil
}

func (c *TimesCmd) Run(ctx *Context) error {
	patch := lifecycle.TimesPatch{
		DueTime:                c.Due,
		ReminderTime:           c.Remind,
		ReminderEndTime:        c.RemindEnd,
		ReminderFrequencyHours: c.Every,
	}
	h, err := lookupAndApply(ctx, c.Habit, func(hs *habitstore.Store, id string) (models.Habit, error) {
		return hs.EditTimes(ctx.Base, id, patch)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Updated times for %s\n", h.Title)
	return nil
}

type RemoveCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or title."`
}

func (c *RemoveCmd) Run(ctx *Context) error {
	hs, err := ctx.openForCommand()
	if err != nil {
		return err
	}
	defer hs.Close()

	h, err := hs.Lookup(ctx.Base, c.Habit)
	if err != nil {
		return err
	}
	if err := hs.RemoveHabit(ctx.Base, h.ID); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Removed habit: %s\n", h.Title)
	return nil
}
