package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/tui/components/habitlist"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case tickMsg:
		// Another process (the CLI or the notify daemon) may have written.
		if err := m.store.Reload(m.ctx); err != nil {
			m.setError(err)
		}
		m.refresh()
		return m, tick()
	}

	switch m.state {
	case constants.StateAddHabit:
		return m.updateAddHabit(msg)
	case constants.StatePostpone:
		return m.updatePostpone(msg)
	case constants.StateEditTimes:
		return m.updateEditTimes(msg)
	case constants.StateConfirmRemove:
		return m.updateConfirmRemove(msg)
	}

	if handled, cmd := m.handleHabitMessages(msg); handled {
		return m, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.tab = (m.tab + 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.tab = (m.tab - 1 + tabCount) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			if err := m.store.Reload(m.ctx); err != nil {
				m.setError(err)
			} else {
				m.setInfo("Reloaded")
			}
			m.refresh()
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.tab {
	case TabToday:
		m.todayList, cmd = m.todayList.Update(msg)
	case TabLater:
		m.laterList, cmd = m.laterList.Update(msg)
	case TabStats:
		m.summaryModel, cmd = m.summaryModel.Update(msg)
	}
	return m, cmd
}

// handleHabitMessages applies the actions emitted by the habit lists.
func (m *Model) handleHabitMessages(msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case habitlist.AddHabitMsg:
		m.addForm = newAddFormModel()
		m.form = NewAddForm(m.addForm)
		m.state = constants.StateAddHabit
		return true, m.form.Init()

	case habitlist.ToggleHabitMsg:
		h, err := m.store.ToggleCompletion(m.ctx, msg.ID)
		if err != nil {
			m.setError(err)
		} else {
			m.setInfo(toggleMessage(h))
		}
		m.refresh()
		return true, nil

	case habitlist.SkipHabitMsg:
		if h, err := m.store.Skip(m.ctx, msg.ID); err != nil {
			m.setError(err)
		} else {
			m.setInfo(fmt.Sprintf("Skipped %s for today", h.Title))
		}
		m.refresh()
		return true, nil

	case habitlist.RestoreHabitMsg:
		if h, err := m.store.Unpostpone(m.ctx, msg.ID); err != nil {
			m.setError(err)
		} else {
			m.setInfo(fmt.Sprintf("%s is back for today", h.Title))
		}
		m.refresh()
		return true, nil

	case habitlist.PostponeHabitMsg:
		m.target = msg.Habit
		m.postponeForm = &PostponeFormModel{Days: 1}
		m.form = NewPostponeForm(msg.Habit.Title, m.postponeForm)
		m.state = constants.StatePostpone
		return true, m.form.Init()

	case habitlist.EditTimesMsg:
		m.target = msg.Habit
		m.timesForm = newTimesFormModel(msg.Habit)
		m.form = NewTimesForm(msg.Habit.Title, m.timesForm)
		m.state = constants.StateEditTimes
		return true, m.form.Init()

	case habitlist.RemoveHabitMsg:
		m.target = msg.Habit
		m.state = constants.StateConfirmRemove
		return true, nil
	}
	return false, nil
}

func toggleMessage(h models.Habit) string {
	switch {
	case h.Status == models.StatusDone:
		return fmt.Sprintf("✓ %s done (+%d pts)", h.Title, h.PointsValue)
	case h.DailyTarget > 1 && h.DailyCompletions > 0:
		return fmt.Sprintf("%s: %d/%d today", h.Title, h.DailyCompletions, h.DailyTarget)
	default:
		return fmt.Sprintf("Unmarked %s", h.Title)
	}
}

// updateForm feeds msg to the active form. Esc returns to the dashboard.
func (m *Model) updateForm(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.form.State = huh.StateAborted
		return nil
	}
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	return cmd
}

func (m *Model) closeForm() {
	m.form = nil
	m.state = constants.StateDashboard
}

func (m Model) updateAddHabit(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.updateForm(msg)

	switch m.form.State {
	case huh.StateCompleted:
		h, err := m.store.AddHabit(m.ctx, m.addForm.Draft(m.store.Today()))
		if err != nil {
			// Stay in the form so the input can be corrected
			m.setError(err)
			m.form.State = huh.StateNormal
			return m, cmd
		}
		m.setInfo(fmt.Sprintf("Added %s", h.Title))
		m.closeForm()
		m.refresh()
	case huh.StateAborted:
		m.closeForm()
	}
	return m, cmd
}

func (m Model) updatePostpone(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.updateForm(msg)

	switch m.form.State {
	case huh.StateCompleted:
		until := m.store.Today().AddDate(0, 0, m.postponeForm.Days)
		if h, err := m.store.Postpone(m.ctx, m.target.ID, until); err != nil {
			m.setError(err)
		} else {
			m.setInfo(fmt.Sprintf("Postponed %s until %s", h.Title, h.PostponedUntil))
		}
		m.closeForm()
		m.refresh()
	case huh.StateAborted:
		m.closeForm()
	}
	return m, cmd
}

func (m Model) updateEditTimes(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.updateForm(msg)

	switch m.form.State {
	case huh.StateCompleted:
		patch := m.timesForm.Patch(m.target)
		if patch.Empty() {
			m.setInfo("No changes")
		} else if h, err := m.store.EditTimes(m.ctx, m.target.ID, patch); err != nil {
			m.setError(err)
		} else {
			m.setInfo(fmt.Sprintf("Updated times for %s", h.Title))
		}
		m.closeForm()
		m.refresh()
	case huh.StateAborted:
		m.closeForm()
	}
	return m, cmd
}

func (m Model) updateConfirmRemove(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		if err := m.store.RemoveHabit(m.ctx, m.target.ID); err != nil {
			m.setError(err)
		} else {
			m.setInfo(fmt.Sprintf("Removed %s", m.target.Title))
		}
		m.state = constants.StateDashboard
		m.refresh()
	case "n", "N", "esc", "q":
		m.state = constants.StateDashboard
	}
	return m, nil
}
