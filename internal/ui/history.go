package ui

import (
	"rydm/internal/domain"
	"rydm/internal/ports"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

type historyItem struct{ entry domain.HistoryEntry }

func (i historyItem) FilterValue() string   { return i.entry.Track.Title + " " + i.entry.Track.Artist }
func (i historyItem) ID() string            { return i.entry.Track.ID }
func (i historyItem) ToTrack() domain.Track { return i.entry.Track }
func (i historyItem) Label() string {
	return i.entry.Track.Title + " · " + i.entry.Track.Artist + "  " + humanize.Time(i.entry.PlayedAt)
}

type historyDataSource struct {
	storageService ports.StorageService
	config         domain.Config
}

func (s historyDataSource) Fetch(query string) tea.Msg {
	entries, err := s.storageService.GetHistory(s.config.HistoryLimit)
	if err != nil {
		return ports.HistoryErrorMsg{Err: err}
	}
	return ports.HistoryLoadedMsg{Entries: entries}
}

func NewHistoryModel(service ports.StorageService, cfg domain.Config, styles Styles) listAndFilterModel {
	return NewListAndFilterModel(
		"history",
		"Filter history...",
		historyDataSource{storageService: service, config: cfg},
		styles,
	)
}
