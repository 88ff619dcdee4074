package cli

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/reminders"
	"github.com/julianstephens/habitflow/internal/utils"
)

type StatsCmd struct{}

func (c *StatsCmd) Run(ctx *Context) error {
	hs, err := ctx.openForCommand()
	if err != nil {
		return err
	}
	defer hs.Close()

	st := hs.Stats(ctx.Base)
	due := hs.DueToday(ctx.Base)
	done := hs.CompletedToday(ctx.Base)

	fmt.Fprintf(ctx.Out, "Today:          %s\n", utils.FormatDate(hs.Today()))
	fmt.Fprintf(ctx.Out, "Completed:      %d/%d\n", len(done), len(due))
	fmt.Fprintf(ctx.Out, "Current streak: %d\n", st.CurrentStreak)
	fmt.Fprintf(ctx.Out, "Longest streak: %d\n", st.LongestStreak)
	fmt.Fprintf(ctx.Out, "Total points:   %d\n", st.TotalPoints)
	if last := hs.LastRollover(); last.Changed {
		fmt.Fprintf(ctx.Out, "Rollover:       %s after %d day(s)\n", last.Outcome, last.DaysElapsed)
	}
	return nil
}

type RemindersCmd struct {
	Habit string `arg:"" optional:"" help:"Habit id, id prefix or title. Shows every habit with reminders when omitted."`
}

func (c *RemindersCmd) Run(ctx *Context) error {
	hs, err := ctx.openForCommand()
	if err != nil {
		return err
	}
	defer hs.Close()

	habits := hs.Habits(ctx.Base)
	if c.Habit != "" {
		h, err := hs.Lookup(ctx.Base, c.Habit)
		if err != nil {
			return err
		}
		habits = []models.Habit{h}
	}

	scheduled := make(map[string]bool)
	for _, h := range hs.ScheduledToday(ctx.Base) {
		scheduled[h.ID] = true
	}

	shown := 0
	for _, h := range habits {
		triggers := reminders.ComputeTriggers(h)
		if len(triggers) == 0 {
			continue
		}
		clocks := make([]string, len(triggers))
		for i, t := range triggers {
			clocks[i] = t.Clock()
		}
		state := "scheduled today"
		if !scheduled[h.ID] {
			state = "not scheduled today"
		}
		fmt.Fprintf(ctx.Out, "%s (%s): %s\n", h.Title, state, strings.Join(clocks, ", "))
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(ctx.Out, "No reminders configured")
	}
	return nil
}
