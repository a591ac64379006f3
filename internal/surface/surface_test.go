package surface

import (
	"testing"
	"time"

	"rydm/internal/clock"
	"rydm/internal/domain"
	"rydm/internal/geo"
	"rydm/internal/mapsync"
	"rydm/internal/preview"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type tracks []domain.Track

func (t tracks) CandidateItems() []domain.Track { return t }

type nopMedia struct {
	open bool
}

func (m *nopMedia) Open(string, preview.MediaEvents) error { m.open = true; return nil }
func (m *nopMedia) Play() error                             { return nil }
func (m *nopMedia) Seek(float64) error                      { return nil }
func (m *nopMedia) CurrentTime() float64                    { return 0 }
func (m *nopMedia) Duration() float64                       { return 30 }
func (m *nopMedia) Close() error                            { m.open = false; return nil }

type nopHost struct{}

func (nopHost) PauseMain() error            { return nil }
func (nopHost) ResumeMain() error           { return nil }
func (nopHost) IsMainPlaying() bool         { return false }
func (nopHost) PlayFull(domain.Track) error { return nil }

type recorder struct {
	counts map[mapsync.Kind]int
}

type rig struct {
	sched *clock.Virtual
	bus   *mapsync.Bus
	media *nopMedia
	arb   *preview.Arbiter
	spy   *recorder
	items tracks
}

func newRig(t *testing.T, opts ...mapsync.Option) *rig {
	t.Helper()
	sched := clock.NewVirtual(epoch)
	bus := mapsync.NewBus(append([]mapsync.Option{mapsync.WithClock(sched.Now)}, opts...)...)
	media := &nopMedia{}
	r := &rig{
		sched: sched,
		bus:   bus,
		media: media,
		arb:   preview.NewArbiter(sched, media, nopHost{}, preview.DefaultOptions()),
		spy:   &recorder{counts: map[mapsync.Kind]int{}},
		items: tracks{
			{ID: "a", Title: "A", PreviewURL: "https://example.com/a.m4a"},
			{ID: "b", Title: "B", PreviewURL: "https://example.com/b.m4a"},
			{ID: "c", Title: "C", PreviewURL: "https://example.com/c.m4a"},
		},
	}
	bus.Subscribe(func(ev mapsync.Event) { r.spy.counts[ev.Kind]++ })
	return r
}

func (r *rig) surface(t *testing.T, name string, bumpsSeed bool) *Surface {
	t.Helper()
	opts := DefaultOptions(name)
	opts.BumpsSeed = bumpsSeed
	s := New(r.bus, r.sched, r.arb, r.items, opts)
	t.Cleanup(s.Close)
	return s
}

func pinCoords(s *Surface) []geo.Coord {
	out := make([]geo.Coord, 0, len(s.Pins()))
	for _, p := range s.Pins() {
		out = append(out, p.Coord())
	}
	return out
}

func TestSurface_StartsOnBusViewWithIdenticalPins(t *testing.T) {
	r := newRig(t)
	card := r.surface(t, "card", true)
	search := r.surface(t, "search", false)

	assert.Equal(t, mapsync.DefaultCenter, card.Center())
	assert.Equal(t, mapsync.DefaultZoom, search.Zoom())
	require.Len(t, card.Pins(), 5)
	assert.Equal(t, pinCoords(card), pinCoords(search))
	assert.NotEqual(t, card.Origin(), search.Origin())
}

func TestSurface_UserPanConvergesWithoutEcho(t *testing.T) {
	r := newRig(t)
	card := r.surface(t, "card", true)
	search := r.surface(t, "search", false)

	require.True(t, card.Pan(4, 0))
	r.sched.Advance(time.Second)

	assert.Equal(t, 1, r.spy.counts[mapsync.KindView], "a single user pan must produce exactly one view event")
	assert.Equal(t, card.Center(), search.Center())
	assert.Equal(t, card.Zoom(), search.Zoom())
	assert.Zero(t, search.PendingRemote())
	assert.False(t, search.Moving())

	assert.Equal(t, 1, r.spy.counts[mapsync.KindSeed])
	assert.Equal(t, r.bus.Get().Seed, card.Seed())
	assert.Equal(t, r.bus.Get().Seed, search.Seed())
	assert.Equal(t, pinCoords(card), pinCoords(search))
}

func TestSurface_CountingGuardAbsorbsOverlappingRemoteMoves(t *testing.T) {
	r := newRig(t)
	search := r.surface(t, "search", false)

	first := geo.Coord{Lng: 9.20, Lat: 48.78}
	second := geo.Coord{Lng: 9.25, Lat: 48.79}
	r.bus.PublishView(first, 13, "elsewhere")
	r.sched.Advance(100 * time.Millisecond)
	r.bus.PublishView(second, 14, "elsewhere")
	r.sched.Advance(time.Second)

	assert.Equal(t, 2, r.spy.counts[mapsync.KindView], "the surface must not republish remote moves")
	assert.Equal(t, second, search.Center())
	assert.Equal(t, 14.0, search.Zoom())
	assert.Zero(t, search.PendingRemote())
}

func TestSurface_SelectResultPublishesResultThenView(t *testing.T) {
	r := newRig(t)
	card := r.surface(t, "card", true)
	search := r.surface(t, "search", false)

	var kinds []mapsync.Kind
	r.bus.Subscribe(func(ev mapsync.Event) { kinds = append(kinds, ev.Kind) })

	target := geo.Coord{Lng: 13.405, Lat: 52.52}
	search.SelectResult(target)
	r.sched.Advance(2 * time.Second)

	require.GreaterOrEqual(t, len(kinds), 2)
	assert.Equal(t, []mapsync.Kind{mapsync.KindResult, mapsync.KindView}, kinds[:2])
	assert.Equal(t, 1, r.spy.counts[mapsync.KindView])

	for _, s := range []*Surface{card, search} {
		assert.Equal(t, target, s.Center(), s.Name())
		assert.Equal(t, 15.0, s.Zoom(), s.Name())
		assert.Zero(t, s.PendingRemote(), s.Name())
		got, ok := s.Result()
		require.True(t, ok)
		assert.Equal(t, target, got)
	}
	assert.Equal(t, pinCoords(card), pinCoords(search))
}

func TestSurface_OpenAtResult(t *testing.T) {
	r := newRig(t)
	target := geo.Coord{Lng: 9.17, Lat: 48.77}
	r.bus.PublishResult(target, "elsewhere")

	opts := DefaultOptions("search")
	opts.OpenAtResult = true
	search := New(r.bus, r.sched, r.arb, r.items, opts)
	defer search.Close()
	r.sched.Advance(time.Second)

	assert.Equal(t, target, search.Center())
	assert.Equal(t, 15.0, search.Zoom())
	assert.Zero(t, r.spy.counts[mapsync.KindView])
}

func TestSurface_SeedBumpThresholdAndDebounce(t *testing.T) {
	r := newRig(t, mapsync.WithView(mapsync.DefaultCenter, 17))
	card := r.surface(t, "card", true)
	search := r.surface(t, "search", false)

	require.True(t, card.Pan(1, 0))
	r.sched.Advance(200 * time.Millisecond)
	assert.Zero(t, r.spy.counts[mapsync.KindSeed], "moves under the seed distance keep the seed")

	require.True(t, card.ZoomBy(-5))
	r.sched.Advance(200 * time.Millisecond)
	assert.Zero(t, r.spy.counts[mapsync.KindSeed], "zooming in place keeps the seed")

	for range 3 {
		require.True(t, card.Pan(3, 0))
		r.sched.Advance(50 * time.Millisecond)
	}
	r.sched.Advance(60 * time.Millisecond)
	assert.Zero(t, r.spy.counts[mapsync.KindSeed], "bursts are debounced")

	r.sched.Advance(10 * time.Millisecond)
	assert.Equal(t, 1, r.spy.counts[mapsync.KindSeed])
	assert.Equal(t, epoch.Add(620*time.Millisecond).UnixMilli(), r.bus.Get().Seed)

	r.sched.Advance(time.Second)
	assert.Equal(t, r.bus.Get().Seed, card.Seed())
	assert.Equal(t, card.Seed(), search.Seed())
	assert.Equal(t, pinCoords(card), pinCoords(search))
}

func TestSurface_HeldPinLocksGestures(t *testing.T) {
	r := newRig(t)
	card := r.surface(t, "card", true)
	center := card.Center()

	require.True(t, card.Press(0))
	assert.True(t, card.Locked())
	assert.False(t, card.Pan(2, 0))
	assert.False(t, card.ZoomBy(1))
	assert.Equal(t, center, card.Center())
	assert.Zero(t, r.spy.counts[mapsync.KindView])

	r.sched.Advance(100 * time.Millisecond)
	card.Release()
	assert.False(t, card.Locked())
	assert.True(t, card.Pan(2, 0))
	assert.Equal(t, 1, r.spy.counts[mapsync.KindView])
}

func TestSurface_ReplacementTearsDownPreview(t *testing.T) {
	r := newRig(t)
	card := r.surface(t, "card", true)
	search := r.surface(t, "search", false)

	require.True(t, card.Press(1))
	card.Release()
	require.NotNil(t, r.arb.Owner())
	require.True(t, r.media.open)

	require.True(t, search.Pan(3, 2))
	r.sched.Advance(time.Second)

	assert.Nil(t, r.arb.Owner())
	assert.False(t, r.media.open)
	assert.False(t, card.Locked())
}

func TestSurface_CloseLeavesBus(t *testing.T) {
	r := newRig(t)
	card := r.surface(t, "card", true)
	search := r.surface(t, "search", false)
	before := card.Center()

	card.Close()
	card.Close()
	require.True(t, search.Pan(5, 0))
	r.sched.Advance(time.Second)

	assert.Equal(t, before, card.Center())
	assert.Empty(t, card.Pins())
	assert.False(t, card.Pan(1, 0))
	assert.Zero(t, r.sched.Pending())
}

func TestSurface_ResizeReplacesPins(t *testing.T) {
	r := newRig(t)
	card := r.surface(t, "card", true)
	renders := card.Renders()
	coords := pinCoords(card)

	card.Resize(80, 24)
	assert.Equal(t, renders+1, card.Renders())
	assert.Equal(t, coords, pinCoords(card))

	card.Resize(80, 24)
	assert.Equal(t, renders+1, card.Renders())
}

func TestSurface_Projection(t *testing.T) {
	r := newRig(t)
	card := r.surface(t, "card", true)
	w, h := card.Size()

	col, row, ok := card.Project(card.Center())
	require.True(t, ok)
	assert.Equal(t, w/2, col)
	assert.Equal(t, h/2, row)

	c := card.Unproject(w/2+3, h/2-2)
	col, row, ok = card.Project(c)
	require.True(t, ok)
	assert.Equal(t, w/2+3, col)
	assert.Equal(t, h/2-2, row)

	for _, p := range card.Pins() {
		_, _, ok := card.Project(p.Coord())
		assert.True(t, ok, "pins within the placement radius are on screen")
	}

	assert.InDelta(t, 142, MetersPerCell(mapsync.DefaultCenter.Lat, mapsync.DefaultZoom), 5)
}

type mutableTracks struct{ items []domain.Track }

func (m *mutableTracks) CandidateItems() []domain.Track { return m.items }

func TestSurface_RefreshFollowsCandidates(t *testing.T) {
	r := newRig(t)
	source := &mutableTracks{items: r.items[:1]}
	s := New(r.bus, r.sched, r.arb, source, DefaultOptions("card"))
	t.Cleanup(s.Close)
	require.Len(t, s.Pins(), 5)
	assert.Equal(t, "a", s.Pins()[4].Track().ID, "a short list is cycled over every pin")

	source.items = r.items
	s.Refresh()
	ids := map[string]bool{}
	for _, p := range s.Pins() {
		ids[p.Track().ID] = true
	}
	assert.Len(t, ids, 3)

	s.Close()
	renders := s.Renders()
	s.Refresh()
	assert.Equal(t, renders, s.Renders())
}

func TestSurface_OnGridMovesWithPan(t *testing.T) {
	r := newRig(t)
	card := r.surface(t, "card", false)
	w, h := card.Size()

	count := func() (n int, first [2]int) {
		first = [2]int{-1, -1}
		for row := range h {
			for col := range w {
				if card.OnGrid(col, row) {
					if n == 0 {
						first = [2]int{col, row}
					}
					n++
				}
			}
		}
		return n, first
	}

	n, before := count()
	require.NotZero(t, n)
	require.True(t, card.Pan(3, 0))
	_, after := count()
	assert.NotEqual(t, before, after)
}
