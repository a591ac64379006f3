package ui

import (
	"fmt"
	"io"
	"strings"

	"rydm/internal/domain"
	"rydm/internal/ports"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type componentFocus int

const (
	inputFocus componentFocus = iota
	listFocus
)

type listItem interface {
	list.Item
	ID() string
	Label() string
	ToTrack() domain.Track
}

type listDataSource interface {
	Fetch(query string) tea.Msg
}

// listAndFilterModel is a text input over a list. The search tab sends the
// input to its data source on enter; the history tab filters locally.
type listAndFilterModel struct {
	title             string
	dataSource        listDataSource
	styles            Styles
	focus             componentFocus
	textInput         textinput.Model
	resultsList       list.Model
	spinner           spinner.Model
	isLoading         bool
	err               error
	fullList          []list.Item
	markedForDeletion map[string]struct{}
}

type itemDelegate struct {
	styles            Styles
	markedForDeletion map[string]struct{}
}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	listItem, ok := item.(listItem)
	if !ok {
		return
	}

	itemStyle := d.styles.ListNormal
	pointer := "  "
	if index == m.Index() {
		itemStyle = d.styles.ListSelected
		pointer = d.styles.ListPointer.String()
	}

	var lineBuilder strings.Builder
	if _, isMarked := d.markedForDeletion[listItem.ID()]; isMarked {
		lineBuilder.WriteString("x ")
		itemStyle = itemStyle.Strikethrough(true).Faint(true)
	}

	lineBuilder.WriteString(listItem.Label())
	line := lineBuilder.String()

	if m.Width() > 0 {
		line = truncate(line, m.Width()-lipgloss.Width(pointer))
	}
	fmt.Fprint(w, itemStyle.Render(pointer+line))
}

func NewListAndFilterModel(title, placeholder string, source listDataSource, styles Styles) listAndFilterModel {
	m := listAndFilterModel{
		title:             title,
		dataSource:        source,
		styles:            styles,
		focus:             inputFocus,
		markedForDeletion: make(map[string]struct{}),
	}

	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "/ "
	ti.PromptStyle = styles.Muted
	ti.TextStyle = lipgloss.NewStyle()
	m.textInput = ti

	delegate := itemDelegate{
		styles:            styles,
		markedForDeletion: m.markedForDeletion,
	}
	li := list.New([]list.Item{}, delegate, 0, 0)
	li.SetShowTitle(false)
	li.SetShowStatusBar(false)
	li.SetShowPagination(false)
	li.SetShowHelp(false)
	li.SetFilteringEnabled(false)
	m.resultsList = li

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner
	m.spinner = s

	return m
}

// Init loads the initial content. The search tab starts empty.
func (m *listAndFilterModel) Init() tea.Cmd {
	if m.title == "search" {
		return nil
	}
	m.isLoading = true
	clear(m.markedForDeletion)
	source := m.dataSource
	fetchCmd := func() tea.Msg {
		return source.Fetch("")
	}
	return tea.Batch(m.spinner.Tick, fetchCmd)
}

func (m *listAndFilterModel) Focus() tea.Cmd {
	m.focus = inputFocus
	return m.textInput.Focus()
}

func (m *listAndFilterModel) Blur() {
	m.focus = inputFocus
	m.textInput.Blur()
}

func (m *listAndFilterModel) GetFocus() componentFocus { return m.focus }
func (m *listAndFilterModel) SetSize(w, h int) {
	m.textInput.Width = w - 4
	m.resultsList.SetSize(w, h-2)
}

func (m *listAndFilterModel) setItems(items []list.Item) tea.Cmd {
	m.fullList = items
	return m.resultsList.SetItems(items)
}

func (m listAndFilterModel) Update(msg tea.Msg) (listAndFilterModel, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case ports.SearchResultsMsg:
		m.isLoading = false
		items := make([]list.Item, len(msg.Tracks))
		for i, track := range msg.Tracks {
			items[i] = searchItem{track: track}
		}
		return m, m.setItems(items)
	case ports.SearchErrorMsg:
		m.isLoading = false
		m.err = msg.Err
		return m, nil
	case locationSelectedMsg:
		m.isLoading = false
		return m, nil
	case ports.HistoryLoadedMsg:
		m.isLoading = false
		m.err = nil
		items := make([]list.Item, len(msg.Entries))
		for i, entry := range msg.Entries {
			items[i] = historyItem{entry: entry}
		}
		clear(m.markedForDeletion)
		return m, m.setItems(items)
	case ports.HistoryErrorMsg:
		m.isLoading = false
		m.err = msg.Err
		return m, nil
	}

	if m.isLoading {
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.Blur()
			return m, func() tea.Msg { return ports.ChangeFocusMsg{NewFocus: ports.GlobalFocus} }
		case "tab":
			if m.focus == inputFocus {
				m.focus = listFocus
				m.textInput.Blur()
			} else {
				m.focus = inputFocus
				m.textInput.Focus()
			}
			return m, nil
		}
	}

	switch m.focus {
	case inputFocus:
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)

		if m.title == "search" {
			if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
				query := m.textInput.Value()
				if strings.TrimSpace(query) == "" {
					return m, nil
				}
				m.isLoading = true
				m.err = nil
				m.focus = listFocus
				m.textInput.Blur()
				source := m.dataSource
				cmds = append(cmds, m.spinner.Tick, func() tea.Msg {
					return source.Fetch(query)
				})
			}
		} else {
			filterTerm := strings.ToLower(m.textInput.Value())
			var filteredItems []list.Item
			if filterTerm == "" {
				filteredItems = m.fullList
			} else {
				for _, item := range m.fullList {
					if strings.Contains(strings.ToLower(item.FilterValue()), filterTerm) {
						filteredItems = append(filteredItems, item)
					}
				}
			}
			cmds = append(cmds, m.resultsList.SetItems(filteredItems))
		}

	case listFocus:
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "enter":
				if selectedItem, ok := m.resultsList.SelectedItem().(listItem); ok {
					track := selectedItem.ToTrack()
					return m, func() tea.Msg { return ports.PlayTrackMsg{Track: track} }
				}
			case "x":
				if m.title == "history" {
					if selectedItem, ok := m.resultsList.SelectedItem().(listItem); ok {
						trackID := selectedItem.ID()
						if _, isMarked := m.markedForDeletion[trackID]; isMarked {
							delete(m.markedForDeletion, trackID)
						} else {
							m.markedForDeletion[trackID] = struct{}{}
						}
						return m, m.resultsList.SetItems(m.resultsList.Items())
					}
				}
			case "d":
				if m.title == "history" && len(m.markedForDeletion) > 0 {
					ids := make([]string, 0, len(m.markedForDeletion))
					for id := range m.markedForDeletion {
						ids = append(ids, id)
					}
					return m, func() tea.Msg { return ports.DeleteFromHistoryMsg{TrackIDs: ids} }
				}
			}
		}
		m.resultsList, cmd = m.resultsList.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m listAndFilterModel) View() string {
	var mainView string
	switch {
	case m.isLoading:
		mainView = m.spinner.View() + " Loading..."
	case m.err != nil:
		mainView = m.styles.ErrorText.Render(fmt.Sprintf("Error: %v", m.err))
	case len(m.resultsList.Items()) == 0:
		mainView = m.styles.Muted.Render("Nothing here yet.")
	default:
		mainView = m.resultsList.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.textInput.View(),
		"",
		mainView,
	)
}
