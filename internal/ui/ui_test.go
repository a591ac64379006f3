package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"rydm/internal/clock"
	"rydm/internal/domain"
	"rydm/internal/geo"
	"rydm/internal/mapsync"
	"rydm/internal/ports"
	"rydm/internal/preview"
	"rydm/internal/surface"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	tracks []domain.Track
	err    error
	terms  []string
}

func (c *fakeCatalog) Search(_ context.Context, term string) ([]domain.Track, error) {
	c.terms = append(c.terms, term)
	return c.tracks, c.err
}

func (c *fakeCatalog) Discover(context.Context) ([]domain.Track, error) {
	return c.tracks, c.err
}

func TestSearchDataSource_Fetch(t *testing.T) {
	tems := domain.Track{ID: "itunes:1", Title: "Free Mind", Artist: "Tems"}

	testCases := []struct {
		name    string
		query   string
		catalog *fakeCatalog
		verify  func(t *testing.T, msg any, c *fakeCatalog)
	}{
		{
			name:    "coordinates fly the map",
			query:   "13.405, 52.52",
			catalog: &fakeCatalog{},
			verify: func(t *testing.T, msg any, c *fakeCatalog) {
				assert.Equal(t, locationSelectedMsg{coord: geo.Coord{Lng: 13.405, Lat: 52.52}}, msg)
				assert.Empty(t, c.terms, "the catalog is not queried")
			},
		},
		{
			name:    "text searches the catalog",
			query:   "tems",
			catalog: &fakeCatalog{tracks: []domain.Track{tems}},
			verify: func(t *testing.T, msg any, c *fakeCatalog) {
				assert.Equal(t, ports.SearchResultsMsg{Tracks: []domain.Track{tems}}, msg)
				assert.Equal(t, []string{"tems"}, c.terms)
			},
		},
		{
			name:    "catalog errors are reported",
			query:   "tems",
			catalog: &fakeCatalog{err: errors.New("offline")},
			verify: func(t *testing.T, msg any, c *fakeCatalog) {
				errMsg, ok := msg.(ports.SearchErrorMsg)
				require.True(t, ok)
				assert.EqualError(t, errMsg.Err, "offline")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg := searchDataSource{catalog: tc.catalog}.Fetch(tc.query)
			tc.verify(t, msg, tc.catalog)
		})
	}
}

type nopMedia struct{}

func (nopMedia) Open(string, preview.MediaEvents) error { return nil }
func (nopMedia) Play() error                             { return nil }
func (nopMedia) Seek(float64) error                      { return nil }
func (nopMedia) CurrentTime() float64                    { return 0 }
func (nopMedia) Duration() float64                       { return 30 }
func (nopMedia) Close() error                            { return nil }

type nopHost struct{}

func (nopHost) PauseMain() error            { return nil }
func (nopHost) ResumeMain() error           { return nil }
func (nopHost) IsMainPlaying() bool         { return false }
func (nopHost) PlayFull(domain.Track) error { return nil }

type staticTracks []domain.Track

func (s staticTracks) CandidateItems() []domain.Track { return s }

func newMapView(t *testing.T) (MapView, *surface.Surface, *preview.Arbiter) {
	t.Helper()
	sched := clock.NewVirtual(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	bus := mapsync.NewBus(mapsync.WithClock(sched.Now))
	arb := preview.NewArbiter(sched, nopMedia{}, nopHost{}, preview.DefaultOptions())
	items := staticTracks{
		{ID: "a", Title: "Replay", Artist: "Tems", PreviewURL: "https://a/1.m4a"},
		{ID: "b", Title: "Timeless", Artist: "The Weeknd", PreviewURL: "https://a/2.m4a"},
	}
	s := surface.New(bus, sched, arb, items, surface.DefaultOptions("card"))
	t.Cleanup(s.Close)
	return NewMapView(s, cardTab, 700*time.Millisecond, DefaultStyles()), s, arb
}

func TestMapView_Render(t *testing.T) {
	v, s, _ := newMapView(t)
	w, h := s.Size()

	out := v.View()
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 1+h+len(s.Pins()))
	assert.Contains(t, lines[0], "z12.5")
	assert.Contains(t, out, "Replay · Tems")
	assert.Contains(t, out, "Timeless · The Weeknd")

	for _, row := range lines[1 : 1+h] {
		assert.LessOrEqual(t, len([]rune(row)), w)
	}
	assert.Equal(t, 1+len(s.Pins()), v.LegendHeight())
}

func TestMapView_HandleKey(t *testing.T) {
	v, s, arb := newMapView(t)
	center := s.Center()

	handled, cmd := v.HandleKey("right")
	assert.True(t, handled)
	assert.Nil(t, cmd)
	assert.Greater(t, s.Center().Lng, center.Lng)

	v.HandleKey("+")
	assert.Equal(t, 13.5, s.Zoom())

	v.HandleKey("1")
	require.NotNil(t, arb.Owner(), "a tap starts a preview")
	assert.False(t, s.Locked())

	v.HandleKey("s")
	assert.Nil(t, arb.Owner())

	handled, cmd = v.HandleKey("@")
	assert.True(t, handled)
	assert.NotNil(t, cmd, "a hold schedules its release")
	assert.True(t, s.Locked())
	s.Release()

	handled, _ = v.HandleKey("9")
	assert.True(t, handled, "digits without a pin are swallowed")

	handled, _ = v.HandleKey("z")
	assert.False(t, handled)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "0:00", clockTime(0))
	assert.Equal(t, "3:22", clockTime(202.4))
	assert.Equal(t, "Jhen...", truncate("Jhené Aiko", 7))
	assert.Equal(t, "...", truncate("anything", 2))
	assert.Equal(t, "○", ringGlyph(0))
	assert.Equal(t, "◑", ringGlyph(180))
	assert.Equal(t, "●", ringGlyph(400))
}

func TestWaitForLoop(t *testing.T) {
	loop := clock.NewLoop(1)
	ran := false
	loop.Post(func() { ran = true })

	msg, ok := waitForLoop(loop)().(loopMsg)
	require.True(t, ok)
	msg.fn()
	assert.True(t, ran)

	loop.Close()
	assert.Nil(t, waitForLoop(loop)(), "a closed loop ends the wait")
}
