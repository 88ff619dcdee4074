package habitlist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitflow/internal/models"
)

type AddHabitMsg struct{}

type ToggleHabitMsg struct {
	ID string
}

type SkipHabitMsg struct {
	ID string
}

type PostponeHabitMsg struct {
	Habit models.Habit
}

type RestoreHabitMsg struct {
	ID string
}

type EditTimesMsg struct {
	Habit models.Habit
}

type RemoveHabitMsg struct {
	Habit models.Habit
}

type Item struct {
	Habit models.Habit
}

func (i Item) Title() string {
	h := i.Habit
	switch h.Status {
	case models.StatusDone:
		return "✓ " + h.Title
	case models.StatusPostponed:
		return "⏸ " + h.Title
	case models.StatusSkipped:
		return "⤼ " + h.Title
	}
	if h.DailyTarget > 1 {
		return fmt.Sprintf("○ %s (%d/%d)", h.Title, h.DailyCompletions, h.DailyTarget)
	}
	return "○ " + h.Title
}

func (i Item) Description() string {
	h := i.Habit
	parts := []string{
		h.Category.Label(),
		fmt.Sprintf("%d pts", h.PointsValue),
		models.FormatRecurrence(h.Rule()),
	}
	if h.DueTime != "" {
		parts = append(parts, "due "+h.DueTime)
	}
	if h.ReminderTime != "" {
		parts = append(parts, "remind "+h.ReminderTime)
	}
	switch h.Status {
	case models.StatusPostponed:
		parts = append(parts, "until "+h.PostponedUntil, "'u' to bring back")
	case models.StatusSkipped:
		parts = append(parts, "skipped today")
	}
	return strings.Join(parts, " | ")
}

func (i Item) FilterValue() string { return i.Habit.Title }

type KeyMap struct {
	Add      key.Binding
	Toggle   key.Binding
	Skip     key.Binding
	Postpone key.Binding
	Restore  key.Binding
	Times    key.Binding
	Delete   key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "done/undo"),
		),
		Skip: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "skip"),
		),
		Postpone: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "postpone"),
		),
		Restore: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "bring back"),
		),
		Times: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "times"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "remove"),
		),
	}
}

type Model struct {
	list  list.Model
	keys  KeyMap
	empty string
}

// New builds a list of habits. empty is shown when there is nothing to list.
func New(habits []models.Habit, empty string, width, height int) Model {
	l := list.New(toItems(habits), list.NewDefaultDelegate(), width, height)
	l.SetShowTitle(false)
	l.SetShowHelp(false) // We handle help globally in the main model

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle, keys.Skip, keys.Postpone}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Toggle, keys.Skip, keys.Postpone, keys.Restore, keys.Times, keys.Delete}
	}

	return Model{list: l, keys: keys, empty: empty}
}

func toItems(habits []models.Habit) []list.Item {
	items := make([]list.Item, len(habits))
	for i, h := range habits {
		items[i] = Item{Habit: h}
	}
	return items
}

func (m *Model) SetHabits(habits []models.Habit) {
	m.list.SetItems(toItems(habits))
}

// Selected returns the habit under the cursor.
func (m Model) Selected() (models.Habit, bool) {
	if i, ok := m.list.SelectedItem().(Item); ok {
		return i.Habit, true
	}
	return models.Habit{}, false
}

func (m Model) Len() int {
	return len(m.list.Items())
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		if key.Matches(msg, m.keys.Add) {
			return m, func() tea.Msg { return AddHabitMsg{} }
		}
		h, ok := m.Selected()
		if !ok {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Toggle):
			return m, func() tea.Msg { return ToggleHabitMsg{ID: h.ID} }
		case key.Matches(msg, m.keys.Skip):
			return m, func() tea.Msg { return SkipHabitMsg{ID: h.ID} }
		case key.Matches(msg, m.keys.Postpone):
			return m, func() tea.Msg { return PostponeHabitMsg{Habit: h} }
		case key.Matches(msg, m.keys.Restore):
			if h.Status == models.StatusPostponed {
				return m, func() tea.Msg { return RestoreHabitMsg{ID: h.ID} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Times):
			return m, func() tea.Msg { return EditTimesMsg{Habit: h} }
		case key.Matches(msg, m.keys.Delete):
			return m, func() tea.Msg { return RemoveHabitMsg{Habit: h} }
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  " + m.empty
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
