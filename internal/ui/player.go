package ui

import (
	"fmt"
	"strings"

	"rydm/internal/domain"
	"rydm/internal/ports"

	"github.com/charmbracelet/lipgloss"
)

type PlayerModel struct {
	width, height int
	track         domain.Track
	hasTrack      bool
	playing       bool
	mode          string
	state         ports.PlayerState
	preview       string
	err           error
	styles        Styles
}

func NewPlayerModel(styles Styles) PlayerModel {
	return PlayerModel{styles: styles}
}

func (m *PlayerModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *PlayerModel) SetTrack(track domain.Track, ok, playing bool, mode string) {
	m.track = track
	m.hasTrack = ok
	m.playing = playing
	m.mode = mode
}

func (m *PlayerModel) SetState(state ports.PlayerState) { m.state = state }
func (m *PlayerModel) SetPreview(line string)           { m.preview = line }
func (m *PlayerModel) SetError(err error)               { m.err = err }

func (m PlayerModel) progressBar(width int) string {
	if width <= 0 {
		return ""
	}
	ratio := 0.0
	if m.state.Duration > 0 {
		ratio = min(1, max(0, m.state.Position/m.state.Duration))
	}
	filled := int(ratio * float64(width))
	return strings.Repeat("━", filled) + m.styles.Muted.Render(strings.Repeat("─", width-filled))
}

func (m PlayerModel) View() string {
	var title string
	switch {
	case !m.hasTrack:
		title = m.styles.Muted.Render("No track")
	default:
		icon := "▶"
		if !m.playing {
			icon = "⏸"
		}
		title = lipgloss.JoinHorizontal(lipgloss.Left,
			icon, " ",
			m.styles.PlayerTitle.Render(truncate(m.track.Title, max(4, m.width/2))),
			" - ",
			m.styles.PlayerArtist.Render(m.track.Artist),
			m.styles.Muted.Render("  ["+m.mode+"]"),
		)
	}

	times := fmt.Sprintf(" %s / %s", clockTime(m.state.Position), clockTime(m.state.Duration))
	bar := m.progressBar(m.width-lipgloss.Width(times)) + times

	status := m.preview
	if m.err != nil {
		status = m.styles.ErrorText.Render(fmt.Sprintf("Error: %v", m.err))
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Left, title, bar, status))
}
