package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/habitstore"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/tui/components/habitlist"
	"github.com/julianstephens/habitflow/internal/tui/components/summary"
	"github.com/julianstephens/habitflow/internal/validation"
)

// Tab is one of the dashboard views.
type Tab int

const (
	TabToday Tab = iota
	TabLater
	TabStats
	tabCount
)

var tabTitles = []string{"Today", "Later", "Stats"}

// refreshInterval is how often the dashboard reloads the store so a day
// change rolls over and writes from other processes show up while the TUI
// is open.
const refreshInterval = time.Minute

type tickMsg time.Time

type Model struct {
	ctx           context.Context
	store         *habitstore.Store
	state         constants.SessionState
	tab           Tab
	keys          KeyMap
	help          help.Model
	todayList     habitlist.Model
	laterList     habitlist.Model
	summaryModel  summary.Model
	form          *huh.Form
	addForm       *AddFormModel
	postponeForm  *PostponeFormModel
	timesForm     *TimesFormModel
	target        models.Habit
	stats         models.UserStats
	dueCount      int
	doneCount     int
	message       string
	messageIsErr  bool
	validationMsg string
	quitting      bool
	width         int
	height        int
}

// NewModel builds the dashboard on an opened store.
func NewModel(ctx context.Context, store *habitstore.Store) Model {
	m := Model{
		ctx:          ctx,
		store:        store,
		state:        constants.StateDashboard,
		tab:          TabToday,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		todayList:    habitlist.New(nil, "Nothing due today. Press 'a' to add a habit.", 0, 0),
		laterList:    habitlist.New(nil, "Nothing postponed or skipped.", 0, 0),
		summaryModel: summary.New(0, 0),
	}
	if err := store.Degraded(); err != nil {
		m.setError(fmt.Errorf("changes are not being saved: %w", err))
	}
	m.refresh()
	return m
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.tab {
	case TabToday:
		keys = append(keys, m.keys.Toggle, m.keys.Skip, m.keys.Postpone, m.keys.Add)
	case TabLater:
		keys = append(keys, m.keys.Restore)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help, m.keys.Refresh}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}

	var actions []key.Binding
	switch m.tab {
	case TabToday:
		actions = []key.Binding{m.keys.Toggle, m.keys.Skip, m.keys.Postpone, m.keys.Times, m.keys.Add, m.keys.Delete}
	case TabLater:
		actions = []key.Binding{m.keys.Restore, m.keys.Times, m.keys.Add, m.keys.Delete}
	}

	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// ordered flattens the category groups so the list reads section by section.
func ordered(habits []models.Habit) []models.Habit {
	out := make([]models.Habit, 0, len(habits))
	for _, g := range habitstore.GroupByCategory(habits) {
		out = append(out, g.Habits...)
	}
	return out
}

// refresh reloads every view from the store.
func (m *Model) refresh() {
	due := m.store.DueToday(m.ctx)
	m.todayList.SetHabits(ordered(due))

	later := append(m.store.Postponed(m.ctx), m.store.Skipped(m.ctx)...)
	m.laterList.SetHabits(ordered(later))

	m.stats = m.store.Stats(m.ctx)
	m.dueCount = len(due)
	m.doneCount = 0
	for _, h := range due {
		if h.Status == models.StatusDone {
			m.doneCount++
		}
	}

	m.summaryModel.SetData(summary.Data{
		Today:     m.store.Today(),
		Stats:     m.stats,
		Due:       due,
		Scheduled: m.store.ScheduledToday(m.ctx),
		Completed: m.doneCount,
		Rollover:  m.store.LastRollover(),
	})

	m.updateValidationStatus()
}

// updateValidationStatus runs validation and updates the warning message
func (m *Model) updateValidationStatus() {
	result := validation.New().ValidateHabits(m.store.Habits(m.ctx))
	if result.HasConflicts() {
		m.validationMsg = fmt.Sprintf("⚠ %d validation warning(s)", len(result.Conflicts))
	} else {
		m.validationMsg = ""
	}
}

func (m *Model) setInfo(msg string) {
	m.message = msg
	m.messageIsErr = false
}

func (m *Model) setError(err error) {
	m.message = err.Error()
	m.messageIsErr = true
}

func (m *Model) resize() {
	// tabs, header, status line and help
	h := m.height - 8
	if h < 0 {
		h = 0
	}
	w := m.width - 4
	if w < 0 {
		w = 0
	}
	m.todayList.SetSize(w, h)
	m.laterList.SetSize(w, h)
	m.summaryModel.SetSize(w, h)
}
