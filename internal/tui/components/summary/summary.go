package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/reminders"
	"github.com/julianstephens/habitflow/internal/rollover"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(18)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			MarginTop(1)
)

// Data is everything the stats tab shows. Scheduled holds the habits the
// store keeps reminders for today.
type Data struct {
	Today     time.Time
	Stats     models.UserStats
	Due       []models.Habit
	Scheduled []models.Habit
	Completed int
	Rollover  rollover.Result
}

type Model struct {
	viewport viewport.Model
	data     *Data
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.data == nil {
		return "No stats loaded."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

func (m *Model) SetData(d Data) {
	m.data = &d
	m.Render()
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

func (m *Model) Render() {
	if m.data == nil {
		m.viewport.SetContent("No stats loaded.")
		return
	}
	d := m.data

	var b strings.Builder
	b.WriteString(row("Today", d.Today.Format("Monday, Jan 2")))
	b.WriteString(row("Completed", fmt.Sprintf("%d/%d", d.Completed, len(d.Due))))
	b.WriteString(row("Current streak", fmt.Sprintf("%d days", d.Stats.CurrentStreak)))
	b.WriteString(row("Longest streak", fmt.Sprintf("%d days", d.Stats.LongestStreak)))
	b.WriteString(row("Total points", fmt.Sprintf("%d", d.Stats.TotalPoints)))
	if d.Rollover.Outcome != rollover.OutcomeSameDay {
		b.WriteString(noteStyle.Render(fmt.Sprintf("Last rollover: %s after %d day(s)", d.Rollover.Outcome, d.Rollover.DaysElapsed)))
		b.WriteString("\n")
	}

	b.WriteString(headingStyle.Render("Reminders today"))
	b.WriteString("\n")
	listed := false
	for _, h := range d.Scheduled {
		triggers := reminders.ComputeTriggers(h)
		if len(triggers) == 0 {
			continue
		}
		clocks := make([]string, len(triggers))
		for i, t := range triggers {
			clocks[i] = t.Clock()
		}
		b.WriteString(labelStyle.Render(h.Title) + valueStyle.Render(strings.Join(clocks, ", ")) + "\n")
		listed = true
	}
	if !listed {
		b.WriteString(noteStyle.Render("Nothing scheduled"))
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
}
