package ui

import "github.com/charmbracelet/lipgloss"

var (
	accentColor = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	mutedColor  = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	errorColor  = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F87"}
	ringColor   = lipgloss.AdaptiveColor{Light: "#E8A33D", Dark: "#F4C26B"}
)

type Styles struct {
	App          lipgloss.Style
	Box          lipgloss.Style
	Help         lipgloss.Style
	ErrorText    lipgloss.Style
	Muted        lipgloss.Style
	ListNormal   lipgloss.Style
	ListSelected lipgloss.Style
	ListPointer  lipgloss.Style
	Spinner      lipgloss.Style
	PlayerTitle  lipgloss.Style
	PlayerArtist lipgloss.Style
	Pin          lipgloss.Style
	PinActive    lipgloss.Style
	PinDim       lipgloss.Style
	Ring         lipgloss.Style
	Result       lipgloss.Style
	Crosshair    lipgloss.Style
}

func DefaultStyles() Styles {
	s := Styles{}
	s.App = lipgloss.NewStyle().Padding(0, 1)
	s.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder(), true).
		BorderForeground(accentColor)
	s.Help = lipgloss.NewStyle().Foreground(mutedColor)
	s.ErrorText = lipgloss.NewStyle().Foreground(errorColor)
	s.Muted = lipgloss.NewStyle().Foreground(mutedColor)
	s.ListNormal = lipgloss.NewStyle()
	s.ListSelected = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	s.ListPointer = lipgloss.NewStyle().Foreground(accentColor).SetString("> ")
	s.Spinner = lipgloss.NewStyle().Foreground(accentColor)
	s.PlayerTitle = lipgloss.NewStyle().Bold(true)
	s.PlayerArtist = lipgloss.NewStyle().Foreground(mutedColor)
	s.Pin = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	s.PinActive = lipgloss.NewStyle().Foreground(ringColor).Bold(true).Reverse(true)
	s.PinDim = lipgloss.NewStyle().Foreground(mutedColor)
	s.Ring = lipgloss.NewStyle().Foreground(ringColor)
	s.Result = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	s.Crosshair = lipgloss.NewStyle().Foreground(mutedColor)
	return s
}
