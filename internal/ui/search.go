package ui

import (
	"context"
	"time"

	"rydm/internal/domain"
	"rydm/internal/geo"
	"rydm/internal/ports"

	tea "github.com/charmbracelet/bubbletea"
)

const searchTimeout = 15 * time.Second

type searchItem struct {
	track domain.Track
}

func (i searchItem) FilterValue() string { return i.track.Title + " " + i.track.Artist }
func (i searchItem) ID() string          { return i.track.ID }
func (i searchItem) ToTrack() domain.Track {
	return i.track
}
func (i searchItem) Label() string {
	if i.track.Artist == "" {
		return i.track.Title
	}
	return i.track.Title + " · " + i.track.Artist
}

// searchDataSource treats "lng,lat" input as a place to fly to and
// everything else as a catalog query.
type searchDataSource struct {
	catalog ports.CatalogService
}

func (s searchDataSource) Fetch(query string) tea.Msg {
	if c, err := geo.ParseCoord(query); err == nil {
		return locationSelectedMsg{coord: c}
	}
	if s.catalog == nil {
		return ports.SearchResultsMsg{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
	defer cancel()
	tracks, err := s.catalog.Search(ctx, query)
	if err != nil {
		return ports.SearchErrorMsg{Err: err}
	}
	return ports.SearchResultsMsg{Tracks: tracks}
}

func NewSearchModel(catalog ports.CatalogService, styles Styles) listAndFilterModel {
	return NewListAndFilterModel(
		"search",
		"Artist, title or lng,lat...",
		searchDataSource{catalog: catalog},
		styles,
	)
}

// discoverCmd loads the online playlist in the background.
func discoverCmd(catalog ports.CatalogService, timeout time.Duration) tea.Cmd {
	if catalog == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		tracks, err := catalog.Discover(ctx)
		if err != nil {
			return ports.PlaylistErrorMsg{Err: err}
		}
		return ports.PlaylistLoadedMsg{Tracks: tracks}
	}
}
