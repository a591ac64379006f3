package ui

import (
	"fmt"
	"time"

	"rydm/internal/clock"
	"rydm/internal/domain"
	"rydm/internal/logger"
	"rydm/internal/mapsync"
	"rydm/internal/playback"
	"rydm/internal/ports"
	"rydm/internal/preview"
	"rydm/internal/surface"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	MIN_WIDTH  = 50
	MIN_HEIGHT = 20

	pollInterval   = 500 * time.Millisecond
	discoverBudget = 30 * time.Second
	holdMargin     = 200 * time.Millisecond
)

// Deps are the long-lived services the TUI drives. Everything except the
// catalog and storage runs on the update loop.
type Deps struct {
	Config  domain.Config
	Loop    *clock.Loop
	Bus     *mapsync.Bus
	Arbiter *preview.Arbiter
	Host    *playback.Host
	Catalog ports.CatalogService
	Storage ports.StorageService
}

type AppModel struct {
	width, height int
	deps          Deps
	card          *surface.Surface
	search        *surface.Surface
	cardView      MapView
	searchView    MapView
	pinCount      int
	tabs          TabModel
	focus         ports.FocusState
	searchList    listAndFilterModel
	history       listAndFilterModel
	player        PlayerModel
	styles        Styles
	historyInit   tea.Cmd
}

func InitialModel(deps Deps) AppModel {
	styles := DefaultStyles()

	cardOpts := surface.OptionsFromConfig("card", deps.Config.Map)
	cardOpts.BumpsSeed = true
	searchOpts := surface.OptionsFromConfig("search", deps.Config.Map)
	searchOpts.OpenAtResult = true

	card := surface.New(deps.Bus, deps.Loop, deps.Arbiter, deps.Host, cardOpts)
	search := surface.New(deps.Bus, deps.Loop, deps.Arbiter, deps.Host, searchOpts)

	hold := deps.Config.Preview.HoldThreshold
	if hold <= 0 {
		hold = preview.DefaultOptions().HoldThreshold
	}
	hold += holdMargin

	m := AppModel{
		deps:       deps,
		card:       card,
		search:     search,
		cardView:   NewMapView(card, cardTab, hold, styles),
		searchView: NewMapView(search, searchTab, hold, styles),
		pinCount:   cardOpts.Count,
		tabs:       NewTabModel(),
		focus:      ports.GlobalFocus,
		searchList: NewSearchModel(deps.Catalog, styles),
		history:    NewHistoryModel(deps.Storage, deps.Config, styles),
		player:     NewPlayerModel(styles),
		styles:     styles,
	}
	m.historyInit = m.history.Init()
	m.syncPlayer()
	return m
}

// Close detaches both surfaces from the bus.
func (m AppModel) Close() {
	m.card.Close()
	m.search.Close()
}

func waitForLoop(l *clock.Loop) tea.Cmd {
	return func() tea.Msg {
		select {
		case fn := <-l.Next():
			return loopMsg{fn: fn}
		case <-l.Done():
			return nil
		}
	}
}

func pollTick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		waitForLoop(m.deps.Loop),
		pollTick(),
		discoverCmd(m.deps.Catalog, discoverBudget),
		m.historyInit,
	)
}

func (m *AppModel) activeView() (MapView, bool) {
	switch m.tabs.ActiveTab {
	case cardTab:
		return m.cardView, true
	case searchTab:
		return m.searchView, true
	}
	return MapView{}, false
}

func (m *AppModel) activeList() *listAndFilterModel {
	switch m.tabs.ActiveTab {
	case searchTab:
		return &m.searchList
	case historyTab:
		return &m.history
	}
	return nil
}

func (m *AppModel) syncPlayer() {
	track, ok := m.deps.Host.Current()
	m.player.SetTrack(track, ok, m.deps.Host.IsPlaying(), m.deps.Host.Mode().String())

	line := ""
	if owner := m.deps.Arbiter.Owner(); owner != nil {
		pct := m.deps.Arbiter.Progress() / 360 * 100
		line = fmt.Sprintf("Preview %s: %s (%.0f%%)", owner.State(), owner.Track().Title, pct)
	}
	m.player.SetPreview(line)
}

func (m *AppModel) report(err error) {
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Player action failed")
	}
	m.player.SetError(err)
}

func (m AppModel) reloadHistory() tea.Cmd {
	source := historyDataSource{storageService: m.deps.Storage, config: m.deps.Config}
	return func() tea.Msg { return source.Fetch("") }
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case loopMsg:
		msg.fn()
		m.syncPlayer()
		return m, waitForLoop(m.deps.Loop)

	case tickMsg:
		state, err := m.deps.Host.Poll()
		if err != nil {
			logger.Log.Debug().Err(err).Msg("Player poll failed")
		}
		m.player.SetState(state)
		m.syncPlayer()
		return m, pollTick()

	case ports.PlaylistLoadedMsg:
		logger.Log.Info().Int("tracks", len(msg.Tracks)).Msg("Online playlist loaded")
		m.deps.Host.SetOnline(msg.Tracks)
		m.card.Refresh()
		m.search.Refresh()
		m.syncPlayer()
		return m, nil

	case ports.PlaylistErrorMsg:
		logger.Log.Warn().Err(msg.Err).Msg("Online playlist unavailable, using local tracks")
		m.player.SetError(fmt.Errorf("offline, using local tracks: %w", msg.Err))
		return m, nil

	case ports.PlayTrackMsg:
		m.report(m.deps.Host.PlayFull(msg.Track))
		m.syncPlayer()
		return m, m.reloadHistory()

	case ports.DeleteFromHistoryMsg:
		if err := m.deps.Storage.DeleteFromHistory(msg.TrackIDs...); err != nil {
			return m, func() tea.Msg { return ports.HistoryErrorMsg{Err: err} }
		}
		return m, m.reloadHistory()

	case locationSelectedMsg:
		m.search.SelectResult(msg.coord)
		m.searchList, cmd = m.searchList.Update(msg)
		return m, cmd

	case releasePinMsg:
		if msg.tab == cardTab {
			m.card.Release()
		} else {
			m.search.Release()
		}
		m.syncPlayer()
		return m, m.reloadHistory()

	case ports.ChangeFocusMsg:
		m.focus = msg.NewFocus
		return m, nil

	case ports.SearchResultsMsg, ports.SearchErrorMsg:
		m.searchList, cmd = m.searchList.Update(msg)
		return m, cmd

	case ports.HistoryLoadedMsg, ports.HistoryErrorMsg:
		m.history, cmd = m.history.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.focus == ports.ComponentFocus {
			if l := m.activeList(); l != nil {
				*l, cmd = l.Update(msg)
				return m, cmd
			}
			m.focus = ports.GlobalFocus
		}
		return m.handleGlobalKey(msg)
	}

	m.searchList, cmd = m.searchList.Update(msg)
	cmds = append(cmds, cmd)
	m.history, cmd = m.history.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m AppModel) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q":
		return m, tea.Quit
	case "tab":
		m.tabs.Next()
		return m, nil
	case "shift+tab":
		m.tabs.Prev()
		return m, nil
	case " ", "space":
		m.report(m.deps.Host.Toggle())
	case "n":
		m.report(m.deps.Host.Next())
	case "p":
		m.report(m.deps.Host.Prev())
	case "m":
		if m.deps.Host.Mode() == playback.ModeOnline {
			m.deps.Host.SetMode(playback.ModeLocal)
		} else {
			m.deps.Host.SetMode(playback.ModeOnline)
		}
		m.card.Refresh()
		m.search.Refresh()
	case "/":
		if l := m.activeList(); l != nil {
			m.focus = ports.ComponentFocus
			return m, l.Focus()
		}
	default:
		if v, ok := m.activeView(); ok {
			if handled, cmd := v.HandleKey(key); handled {
				m.syncPlayer()
				return m, cmd
			}
		}
	}
	m.syncPlayer()
	return m, nil
}

type layoutSizes struct {
	bodyWidth, bodyHeight int
	listWidth             int
	playerWidth           int
}

func (m AppModel) sizes() layoutSizes {
	availableWidth := m.width - m.styles.App.GetHorizontalFrameSize()
	tabsHeight := 3
	playerHeight := 3
	helpHeight := 1
	boxFrame := m.styles.Box.GetVerticalFrameSize()

	bodyHeight := m.height - tabsHeight - helpHeight - (playerHeight + boxFrame) -
		boxFrame - m.styles.App.GetVerticalFrameSize()
	bodyWidth := availableWidth - m.styles.Box.GetHorizontalFrameSize()
	return layoutSizes{
		bodyWidth:   bodyWidth,
		bodyHeight:  bodyHeight,
		listWidth:   bodyWidth * 2 / 5,
		playerWidth: bodyWidth,
	}
}

func (m *AppModel) layout() {
	s := m.sizes()
	legend := 1 + m.pinCount
	mapHeight := max(1, s.bodyHeight-legend)

	m.card.Resize(max(1, s.bodyWidth), mapHeight)
	m.search.Resize(max(1, s.bodyWidth-s.listWidth-1), mapHeight)
	m.searchList.SetSize(s.listWidth, s.bodyHeight)
	m.history.SetSize(s.bodyWidth, s.bodyHeight)
	m.player.SetSize(s.playerWidth, 3)
}

func (m AppModel) View() string {
	if m.width < MIN_WIDTH || m.height < MIN_HEIGHT {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, "Terminal too small")
	}

	s := m.sizes()
	var body string
	switch m.tabs.ActiveTab {
	case cardTab:
		body = m.cardView.View()
	case searchTab:
		list := lipgloss.NewStyle().Width(s.listWidth).Render(m.searchList.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, list, " ", m.searchView.View())
	case historyTab:
		body = m.history.View()
	}

	mainPanel := m.styles.Box.Width(s.bodyWidth).Height(s.bodyHeight).Render(body)
	playerPanel := m.styles.Box.Width(s.playerWidth).Height(3).Render(m.player.View())

	help := "[tab] switch  [arrows] pan  [+/-] zoom  [1-9] preview  [shift+1-9] hold  [space] play  [n/p] next/prev  [/] search  [q] quit"
	if m.focus == ports.ComponentFocus {
		help = "[enter] search / play  [tab] input/list  [x] mark  [d] delete marked  [esc] back"
	}
	helpView := m.styles.Help.Render(truncate(help, s.bodyWidth+2))

	return m.styles.App.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.tabs.View(),
		mainPanel,
		playerPanel,
		helpView,
	))
}
