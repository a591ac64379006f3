// Package mapsync is the in-process bus that keeps every map surface on the
// same view, seed and search result.
//
// The bus is the only writer of ViewState. Surfaces publish through it and
// learn about each other's changes by subscribing; the origin tag on every
// event lets a surface skip its own echoes.
package mapsync

import (
	"math"
	"sync"
	"time"

	"rydm/internal/geo"
	"rydm/internal/logger"
)

// DefaultCenter is Stuttgart city centre.
var DefaultCenter = geo.Coord{Lng: 9.1829, Lat: 48.7758}

const DefaultZoom = 12.5

type Kind string

const (
	KindView   Kind = "view"
	KindResult Kind = "result"
	KindSeed   Kind = "seed"
)

// ViewState is the shared truth every surface converges on.
type ViewState struct {
	Center geo.Coord
	Zoom   float64
	Seed   int64
	Result *geo.Coord
}

// Event is delivered to subscribers after every mutation. Only the fields
// matching Kind are meaningful.
type Event struct {
	Kind   Kind
	Center geo.Coord
	Zoom   float64
	Result geo.Coord
	Seed   int64
	Origin string
}

type Listener func(Event)

type Option func(*Bus)

// WithView overrides the initial center and zoom.
func WithView(center geo.Coord, zoom float64) Option {
	return func(b *Bus) {
		if center.Valid() {
			b.state.Center = center
		}
		if isFinite(zoom) {
			b.state.Zoom = zoom
		}
	}
}

// WithClock replaces the wall clock used to derive seeds.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) { b.now = now }
}

type subscriber struct {
	id int
	fn Listener
}

type Bus struct {
	mu          sync.Mutex
	state       ViewState
	subs        []subscriber
	nextID      int
	queue       []Event
	dispatching bool
	now         func() time.Time
}

func NewBus(opts ...Option) *Bus {
	b := &Bus{
		state: ViewState{Center: DefaultCenter, Zoom: DefaultZoom},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Get returns a copy of the current state.
func (b *Bus) Get() ViewState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot()
}

func (b *Bus) snapshot() ViewState {
	s := b.state
	if s.Result != nil {
		r := *s.Result
		s.Result = &r
	}
	return s
}

func (b *Bus) PublishView(center geo.Coord, zoom float64, origin string) {
	b.mu.Lock()
	if !isFinite(center.Lng) || !isFinite(center.Lat) {
		logger.Log.Warn().Str("origin", origin).Msg("Non-finite view center, keeping last known center")
		center = b.state.Center
	}
	if !isFinite(zoom) {
		logger.Log.Warn().Str("origin", origin).Msg("Non-finite zoom, keeping last known zoom")
		zoom = b.state.Zoom
	}
	b.state.Center = center
	b.state.Zoom = zoom
	b.mu.Unlock()

	b.emit(Event{Kind: KindView, Center: center, Zoom: zoom, Origin: origin})
}

func (b *Bus) PublishResult(coord geo.Coord, origin string) {
	b.mu.Lock()
	if !isFinite(coord.Lng) || !isFinite(coord.Lat) {
		b.mu.Unlock()
		logger.Log.Warn().Str("origin", origin).Msg("Dropping non-finite result")
		return
	}
	b.state.Result = &coord
	b.mu.Unlock()

	b.emit(Event{Kind: KindResult, Result: coord, Origin: origin})
}

// BumpSeed moves the seed to the current millisecond timestamp, or to the
// previous seed plus one when the clock has not advanced.
func (b *Bus) BumpSeed(origin string) int64 {
	b.mu.Lock()
	seed := b.now().UnixMilli()
	if seed <= b.state.Seed {
		seed = b.state.Seed + 1
	}
	b.state.Seed = seed
	b.mu.Unlock()

	b.emit(Event{Kind: KindSeed, Seed: seed, Origin: origin})
	return seed
}

// Subscribe registers fn. Listeners run in subscription order.
func (b *Bus) Subscribe(fn Listener) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subs = append(b.subs, subscriber{id: b.nextID, fn: fn})
	return &Subscription{bus: b, id: b.nextID}
}

func (b *Bus) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// emit queues ev and, unless a dispatch pass is already running, drains the
// queue. Events published by listeners are delivered after the current pass.
func (b *Bus) emit(ev Event) {
	b.mu.Lock()
	b.queue = append(b.queue, ev)
	if b.dispatching {
		b.mu.Unlock()
		return
	}
	b.dispatching = true

	for len(b.queue) > 0 {
		next := b.queue[0]
		b.queue = b.queue[1:]
		subs := b.subs
		b.mu.Unlock()

		for _, s := range subs {
			deliver(s.fn, next)
		}

		b.mu.Lock()
	}
	b.dispatching = false
	b.mu.Unlock()
}

func deliver(fn Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error().Interface("panic", r).Str("kind", string(ev.Kind)).Str("origin", ev.Origin).Msg("Bus listener panicked")
		}
	}()
	fn(ev)
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	bus  *Bus
	id   int
	once sync.Once
}

// Close removes the listener. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() { s.bus.unsubscribe(s.id) })
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
