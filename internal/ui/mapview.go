package ui

import (
	"fmt"
	"strings"
	"time"

	"rydm/internal/preview"
	"rydm/internal/surface"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	panCols = 4
	panRows = 2
)

// holdKeys are the shifted digits on a US layout; each holds the pin with
// the same number until the hold escalates.
var holdKeys = map[string]int{
	"!": 0, "@": 1, "#": 2, "$": 3, "%": 4, "^": 5, "&": 6, "*": 7, "(": 8,
}

var ringGlyphs = []string{"○", "◔", "◑", "◕", "●"}

// MapView draws one surface as a character grid with a legend of its pins.
type MapView struct {
	surf   *surface.Surface
	tab    tab
	hold   time.Duration
	styles Styles
}

func NewMapView(surf *surface.Surface, t tab, hold time.Duration, styles Styles) MapView {
	return MapView{surf: surf, tab: t, hold: hold, styles: styles}
}

// LegendHeight is the number of lines View draws besides the grid.
func (m MapView) LegendHeight() int {
	return 1 + len(m.surf.Pins())
}

// HandleKey applies map keys. It reports whether the key was consumed.
func (m MapView) HandleKey(key string) (bool, tea.Cmd) {
	switch key {
	case "up", "k":
		m.surf.Pan(0, -panRows)
	case "down", "j":
		m.surf.Pan(0, panRows)
	case "left", "h":
		m.surf.Pan(-panCols, 0)
	case "right", "l":
		m.surf.Pan(panCols, 0)
	case "+", "=":
		m.surf.ZoomBy(1)
	case "-", "_":
		m.surf.ZoomBy(-1)
	case "s":
		m.surf.Arbiter().Stop()
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if m.surf.Press(int(key[0] - '1')) {
				m.surf.Release()
			}
			return true, nil
		}
		if i, ok := holdKeys[key]; ok {
			if !m.surf.Press(i) {
				return true, nil
			}
			t := m.tab
			return true, tea.Tick(m.hold, func(time.Time) tea.Msg { return releasePinMsg{tab: t} })
		}
		return false, nil
	}
	return true, nil
}

func ringGlyph(degrees float64) string {
	i := int(degrees / 90)
	return ringGlyphs[max(0, min(len(ringGlyphs)-1, i))]
}

func (m MapView) grid() [][]string {
	w, h := m.surf.Size()
	cells := make([][]string, h)
	for row := range h {
		cells[row] = make([]string, w)
		for col := range w {
			if m.surf.OnGrid(col, row) {
				cells[row][col] = m.styles.Crosshair.Render("·")
			} else {
				cells[row][col] = " "
			}
		}
	}
	if w > 0 && h > 0 {
		cells[h/2][w/2] = m.styles.Crosshair.Render("+")
	}

	if c, ok := m.surf.Result(); ok {
		if col, row, ok := m.surf.Project(c); ok {
			cells[row][col] = m.styles.Result.Render("◎")
		}
	}

	for i, p := range m.surf.Pins() {
		col, row, ok := m.surf.Project(p.Coord())
		if !ok {
			continue
		}
		label := fmt.Sprintf("%d", i+1)
		if i >= 9 {
			label = "•"
		}
		style := m.styles.Pin
		if p.Dim() > 0 {
			style = m.styles.PinActive
		}
		cells[row][col] = style.Render(label)
		if p.Dim() > 0 && col+1 < w {
			deg, _ := p.Ring()
			cells[row][col+1] = m.styles.Ring.Render(ringGlyph(deg))
		}
	}
	return cells
}

func (m MapView) header() string {
	center := m.surf.Center()
	info := fmt.Sprintf("%s  z%.1f  seed %d  ~%.0f m/cell",
		center, m.surf.Zoom(), m.surf.Seed(), surface.MetersPerCell(center.Lat, m.surf.Zoom()))
	if m.surf.Locked() {
		info += "  [held]"
	}
	return m.styles.Muted.Render(info)
}

func (m MapView) legend(width int) []string {
	lines := make([]string, 0, len(m.surf.Pins()))
	for i, p := range m.surf.Pins() {
		t := p.Track()
		deg, _ := p.Ring()
		mark := " "
		switch p.State() {
		case preview.Pressed:
			mark = "…"
		case preview.Previewing:
			mark = ringGlyph(deg)
		case preview.Escalated:
			mark = "▶"
		}
		line := fmt.Sprintf("%d %s %s · %s", i+1, mark, t.Title, t.Artist)
		style := m.styles.ListNormal
		if p.Dim() > 0 {
			style = m.styles.ListSelected
		}
		lines = append(lines, style.Render(truncate(line, max(4, width))))
	}
	return lines
}

func (m MapView) View() string {
	w, _ := m.surf.Size()
	rows := m.grid()
	lines := make([]string, 0, len(rows)+m.LegendHeight())
	lines = append(lines, m.header())
	for _, r := range rows {
		lines = append(lines, strings.Join(r, ""))
	}
	lines = append(lines, m.legend(w)...)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
