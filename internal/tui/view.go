package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitflow/internal/constants"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string

	switch m.state {
	case constants.StateAddHabit, constants.StatePostpone, constants.StateEditTimes:
		content = docStyle.Render(m.form.View())
	case constants.StateConfirmRemove:
		content = m.viewConfirmRemove()
	default:
		switch m.tab {
		case TabToday:
			content = docStyle.Render(m.todayList.View())
		case TabLater:
			content = docStyle.Render(m.laterList.View())
		case TabStats:
			content = docStyle.Render(m.summaryModel.View())
		}
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, m.viewTabs(), m.viewHeader()),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range tabTitles {
		if m.tab == Tab(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewHeader() string {
	return headerStyle.Render(fmt.Sprintf("%s  🔥 %d  ★ %d pts  %d/%d done",
		m.store.Today().Format("Mon Jan 2"),
		m.stats.CurrentStreak,
		m.stats.TotalPoints,
		m.doneCount,
		m.dueCount,
	))
}

func (m Model) viewStatus() string {
	var parts []string
	if m.message != "" {
		if m.messageIsErr {
			parts = append(parts, dangerStyle.Render(m.message))
		} else {
			parts = append(parts, statusStyle.Render(m.message))
		}
	}
	if m.validationMsg != "" {
		parts = append(parts, warningStyle.Render(m.validationMsg))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) viewConfirmRemove() string {
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Remove %q and its reminders?", m.target.Title)),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
