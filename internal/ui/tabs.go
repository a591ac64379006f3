package ui

import (
	"github.com/charmbracelet/lipgloss"
)

func tabBorderWithBottom(left, middle, right string) lipgloss.Border {
	border := lipgloss.RoundedBorder()
	border.BottomLeft = left
	border.Bottom = middle
	border.BottomRight = right
	return border
}

var (
	inactiveTabBorder = tabBorderWithBottom("┴", "─", "┴")
	activeTabBorder   = tabBorderWithBottom("┘", " ", "└")
	inactiveTabStyle  = lipgloss.NewStyle().Border(inactiveTabBorder, true).BorderForeground(accentColor).Padding(0, 1)
	activeTabStyle    = inactiveTabStyle.Copy().Border(activeTabBorder, true).Bold(true)
)

type tab int

const (
	cardTab tab = iota
	searchTab
	historyTab
)

type TabModel struct {
	Tabs      []string
	ActiveTab tab
}

func NewTabModel() TabModel {
	return TabModel{
		Tabs:      []string{"Card", "Search", "History"},
		ActiveTab: cardTab,
	}
}

func (m *TabModel) Next() {
	m.ActiveTab = (m.ActiveTab + 1) % tab(len(m.Tabs))
}

func (m *TabModel) Prev() {
	m.ActiveTab--
	if m.ActiveTab < 0 {
		m.ActiveTab = tab(len(m.Tabs) - 1)
	}
}

func (m TabModel) View() string {
	var renderedTabs []string

	for i, t := range m.Tabs {
		var style lipgloss.Style
		if tab(i) == m.ActiveTab {
			style = activeTabStyle
		} else {
			style = inactiveTabStyle
		}
		renderedTabs = append(renderedTabs, style.Render(t))
	}

	return lipgloss.JoinHorizontal(lipgloss.Bottom, renderedTabs...)
}
