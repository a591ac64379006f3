// Package surface adapts one rendered map to the sync bus.
//
// A Surface owns its own camera (center and zoom), places cover pins with
// the shared seed and forwards settles caused by the user to the bus. Moves
// applied because another surface published are counted as pending remote
// settles and never republished.
package surface

import (
	"time"

	"rydm/internal/clock"
	"rydm/internal/domain"
	"rydm/internal/geo"
	"rydm/internal/logger"
	"rydm/internal/mapsync"
	"rydm/internal/placement"
	"rydm/internal/preview"

	"github.com/google/uuid"
)

// Candidates supplies the tracks pins are drawn from.
type Candidates interface {
	CandidateItems() []domain.Track
}

type Options struct {
	// Name prefixes the origin tag of every event the surface publishes.
	Name string
	// Radius and Count parameterise pin placement.
	Radius float64
	Count  int
	// BumpsSeed makes the surface reseed placements after settling at least
	// SeedDistance meters away from where it last reseeded.
	BumpsSeed    bool
	SeedDistance float64
	SeedDebounce time.Duration
	// FlyDuration is how long a remote move animates. Zero jumps.
	FlyDuration time.Duration
	// ResultZoom is the zoom used when flying to a search result.
	ResultZoom float64
	// OpenAtResult flies to an existing search result on construction.
	OpenAtResult bool

	Width, Height int
}

func DefaultOptions(name string) Options {
	return Options{
		Name:         name,
		Radius:       800,
		Count:        5,
		SeedDistance: 100,
		SeedDebounce: 120 * time.Millisecond,
		FlyDuration:  600 * time.Millisecond,
		ResultZoom:   15,
		Width:        48,
		Height:       16,
	}
}

// OptionsFromConfig overlays the configured map settings on the defaults.
func OptionsFromConfig(name string, cfg domain.MapConfig) Options {
	o := DefaultOptions(name)
	if cfg.Radius > 0 {
		o.Radius = cfg.Radius
	}
	if cfg.PinCount > 0 {
		o.Count = cfg.PinCount
	}
	if cfg.SeedDistance > 0 {
		o.SeedDistance = cfg.SeedDistance
	}
	if cfg.SeedDebounce > 0 {
		o.SeedDebounce = cfg.SeedDebounce
	}
	if cfg.FlyDuration > 0 {
		o.FlyDuration = cfg.FlyDuration
	}
	if cfg.ResultZoom > 0 {
		o.ResultZoom = cfg.ResultZoom
	}
	return o
}

type flight struct {
	from, to         geo.Coord
	fromZoom, toZoom float64
	start            time.Time
	dur              time.Duration
	frame            clock.Timer
}

type Surface struct {
	opts   Options
	origin string
	bus    *mapsync.Bus
	sched  clock.Scheduler
	arb    *preview.Arbiter
	source Candidates
	sub    *mapsync.Subscription

	center   geo.Coord
	zoom     float64
	seed     int64
	result   *geo.Coord
	width    int
	height   int
	pins     []*Pin
	held     *Pin
	renders  int
	seededAt geo.Coord

	pendingRemote int
	locks         int
	anim          *flight
	debounce      clock.Timer
	closed        bool
}

// New attaches a surface to bus at the bus's current view and places its
// first pins.
func New(bus *mapsync.Bus, sched clock.Scheduler, arb *preview.Arbiter, source Candidates, opts Options) *Surface {
	if opts.Width <= 0 || opts.Height <= 0 {
		d := DefaultOptions(opts.Name)
		opts.Width, opts.Height = d.Width, d.Height
	}
	state := bus.Get()
	s := &Surface{
		opts:     opts,
		origin:   opts.Name + "-" + uuid.NewString(),
		bus:      bus,
		sched:    sched,
		arb:      arb,
		source:   source,
		center:   state.Center,
		zoom:     clampZoom(state.Zoom),
		result:   state.Result,
		width:    opts.Width,
		height:   opts.Height,
		seededAt: state.Center,
	}
	s.render()
	s.sub = bus.Subscribe(s.onEvent)

	if opts.OpenAtResult && state.Result != nil {
		s.remoteMove(*state.Result, opts.ResultZoom)
	}
	logger.Log.Debug().Str("origin", s.origin).Str("center", s.center.String()).Msg("Surface attached")
	return s
}

func (s *Surface) Name() string              { return s.opts.Name }
func (s *Surface) Origin() string            { return s.origin }
func (s *Surface) Center() geo.Coord         { return s.center }
func (s *Surface) Zoom() float64             { return s.zoom }
func (s *Surface) Seed() int64               { return s.seed }
func (s *Surface) Size() (w, h int)          { return s.width, s.height }
func (s *Surface) Pins() []*Pin              { return s.pins }
func (s *Surface) Renders() int              { return s.renders }
func (s *Surface) Locked() bool              { return s.locks > 0 }
func (s *Surface) Moving() bool              { return s.anim != nil }
func (s *Surface) PendingRemote() int        { return s.pendingRemote }
func (s *Surface) Held() *Pin                { return s.held }
func (s *Surface) Arbiter() *preview.Arbiter { return s.arb }

// Result returns a copy of the last search result applied to this surface.
func (s *Surface) Result() (geo.Coord, bool) {
	if s.result == nil {
		return geo.Coord{}, false
	}
	return *s.result, true
}

// DisableGestures and EnableGestures implement preview.GestureLock.
func (s *Surface) DisableGestures() { s.locks++ }

func (s *Surface) EnableGestures() {
	if s.locks > 0 {
		s.locks--
	}
}

// Pan moves the camera by whole cells. It reports false when gestures are
// locked by a held pin.
func (s *Surface) Pan(dcol, drow int) bool {
	if s.closed || s.Locked() {
		return false
	}
	x, y := worldPoint(s.center, s.zoom)
	center := worldCoord(x+float64(dcol)*cellWidth, y+float64(drow)*cellHeight, s.zoom)
	s.moveTo(center, s.zoom, 0)
	return true
}

// ZoomBy changes the zoom level around the current center.
func (s *Surface) ZoomBy(delta float64) bool {
	if s.closed || s.Locked() {
		return false
	}
	z := clampZoom(s.zoom + delta)
	if z == s.zoom {
		return false
	}
	s.moveTo(s.center, z, 0)
	return true
}

// Resize changes the grid size and re-places the pins.
func (s *Surface) Resize(width, height int) {
	if s.closed || width <= 0 || height <= 0 {
		return
	}
	if width == s.width && height == s.height {
		return
	}
	s.width, s.height = width, height
	s.render()
}

// Refresh re-places the pins, e.g. after the candidate list changed.
func (s *Surface) Refresh() {
	if s.closed {
		return
	}
	s.render()
}

// SelectResult publishes a chosen search result, then the view at the
// result zoom, and flies there locally without echoing the move.
func (s *Surface) SelectResult(c geo.Coord) {
	if s.closed || !c.Valid() {
		return
	}
	r := c
	s.result = &r
	s.bus.PublishResult(c, s.origin)
	s.bus.PublishView(c, s.opts.ResultZoom, s.origin)
	s.remoteMove(c, s.opts.ResultZoom)
}

// Press forwards a press to the pin at index i.
func (s *Surface) Press(i int) bool {
	if s.closed || i < 0 || i >= len(s.pins) {
		return false
	}
	if s.held != nil {
		s.held.ctrl.Release()
	}
	p := s.pins[i]
	s.held = p
	p.ctrl.Press()
	return true
}

// Release ends the current press, if any.
func (s *Surface) Release() {
	if s.held == nil {
		return
	}
	p := s.held
	s.held = nil
	p.ctrl.Release()
}

// Close destroys the pins, cancels pending work and leaves the bus.
func (s *Surface) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.sub.Close()
	if s.anim != nil {
		s.anim.frame.Stop()
		s.anim = nil
	}
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	s.clearPins()
	logger.Log.Debug().Str("origin", s.origin).Msg("Surface closed")
}

func (s *Surface) onEvent(ev mapsync.Event) {
	if s.closed || ev.Origin == s.origin {
		return
	}
	switch ev.Kind {
	case mapsync.KindView:
		s.remoteMove(ev.Center, ev.Zoom)
	case mapsync.KindResult:
		r := ev.Result
		s.result = &r
		s.remoteMove(r, s.opts.ResultZoom)
	case mapsync.KindSeed:
		s.render()
	}
}

func (s *Surface) remoteMove(center geo.Coord, zoom float64) {
	s.pendingRemote++
	s.moveTo(center, zoom, s.opts.FlyDuration)
}

// moveTo starts a camera move. A move already in flight is interrupted and
// settles where it stopped, so every move produces exactly one settle.
func (s *Surface) moveTo(center geo.Coord, zoom float64, dur time.Duration) {
	s.interrupt()
	zoom = clampZoom(zoom)
	if dur <= 0 {
		s.center, s.zoom = center, zoom
		s.moveEnd()
		return
	}
	f := &flight{
		from:     s.center,
		to:       center,
		fromZoom: s.zoom,
		toZoom:   zoom,
		start:    s.sched.Now(),
		dur:      dur,
	}
	s.anim = f
	f.frame = s.sched.RequestFrame(func(now time.Time) { s.step(f, now) })
}

func (s *Surface) step(f *flight, now time.Time) {
	if s.anim != f {
		return
	}
	t := float64(now.Sub(f.start)) / float64(f.dur)
	if t >= 1 {
		s.anim = nil
		s.center, s.zoom = f.to, f.toZoom
		s.moveEnd()
		return
	}
	e := t * (2 - t)
	s.center = geo.Coord{
		Lng: f.from.Lng + (f.to.Lng-f.from.Lng)*e,
		Lat: f.from.Lat + (f.to.Lat-f.from.Lat)*e,
	}
	s.zoom = f.fromZoom + (f.toZoom-f.fromZoom)*e
	f.frame = s.sched.RequestFrame(func(now time.Time) { s.step(f, now) })
}

func (s *Surface) interrupt() {
	f := s.anim
	if f == nil {
		return
	}
	s.anim = nil
	f.frame.Stop()
	s.moveEnd()
}

// moveEnd runs after every settle. Pins are always re-placed; the view is
// published only when no remote settle is outstanding.
func (s *Surface) moveEnd() {
	s.render()
	if s.pendingRemote > 0 {
		s.pendingRemote--
	} else {
		s.bus.PublishView(s.center, s.zoom, s.origin)
	}
	if s.opts.BumpsSeed {
		s.scheduleReseed()
	}
}

func (s *Surface) scheduleReseed() {
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = s.sched.AfterFunc(s.opts.SeedDebounce, func() {
		s.debounce = nil
		if s.closed {
			return
		}
		moved := geo.MetersBetween(s.seededAt, s.center)
		if moved < s.opts.SeedDistance {
			return
		}
		s.seededAt = s.center
		seed := s.bus.BumpSeed(s.origin)
		logger.Log.Debug().Str("origin", s.origin).Int64("seed", seed).Float64("moved", moved).Msg("Reseeding placements")
		s.render()
	})
}

// render replaces every pin with a fresh placement for the current center
// and the bus seed.
func (s *Surface) render() {
	s.clearPins()
	s.seed = s.bus.Get().Seed

	var items []domain.Track
	if s.source != nil {
		items = s.source.CandidateItems()
	}
	placed := placement.Place(s.center, s.seed, s.opts.Radius, s.opts.Count, items)

	s.pins = make([]*Pin, 0, len(placed))
	for _, p := range placed {
		pin := &Pin{coord: p.Coord, track: p.Item}
		pin.ring.opacity = idleRingOpacity
		pin.ctrl = preview.NewController(s.arb, p.Item, pin, s)
		s.pins = append(s.pins, pin)
	}
	s.renders++
}

func (s *Surface) clearPins() {
	for _, p := range s.pins {
		p.ctrl.Destroy()
	}
	s.pins = nil
	s.held = nil
}
