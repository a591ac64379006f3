// Package preview runs the press/hold gesture on map pins and the short
// audio previews it triggers.
//
// An Arbiter owns the one preview Media of the process. Controllers, one per
// pin, ask it to start sessions; starting a session always tears down the
// previous one first, so at most one preview is ever audible. The arbiter
// remembers whether a session paused the main player and only resumes main
// playback for sessions that did.
package preview

import (
	"math"
	"time"

	"rydm/internal/clock"
	"rydm/internal/logger"
)

type Options struct {
	// Window is the maximum preview length.
	Window time.Duration
	// HoldThreshold is how long a press must last to escalate to full play.
	HoldThreshold time.Duration
	// StartFraction is where in the track the preview starts.
	StartFraction float64
	// Smoothing is the low-pass factor applied to the ring angle per frame.
	Smoothing float64
}

func DefaultOptions() Options {
	return Options{
		Window:        15 * time.Second,
		HoldThreshold: 480 * time.Millisecond,
		StartFraction: 0.35,
		Smoothing:     0.22,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Window <= 0 {
		o.Window = d.Window
	}
	if o.HoldThreshold <= 0 {
		o.HoldThreshold = d.HoldThreshold
	}
	if o.StartFraction <= 0 || o.StartFraction >= 1 {
		o.StartFraction = d.StartFraction
	}
	if o.Smoothing <= 0 || o.Smoothing > 1 {
		o.Smoothing = d.Smoothing
	}
	return o
}

type session struct {
	id          uint64
	owner       *Controller
	marker      Marker
	startOffset float64
	angle       float64
	pausedMain  bool
	playing     bool
	frame       clock.Timer
}

type Arbiter struct {
	sched  clock.Scheduler
	media  Media
	host   Host
	opts   Options
	sess   *session
	nextID uint64
}

func NewArbiter(sched clock.Scheduler, media Media, host Host, opts Options) *Arbiter {
	return &Arbiter{
		sched: sched,
		media: media,
		host:  host,
		opts:  opts.withDefaults(),
	}
}

// Owner returns the controller holding the active session, if any.
func (a *Arbiter) Owner() *Controller {
	if a.sess == nil {
		return nil
	}
	return a.sess.owner
}

// Progress returns the smoothed ring angle of the active session.
func (a *Arbiter) Progress() float64 {
	if a.sess == nil {
		return 0
	}
	return a.sess.angle
}

// Stop ends any preview, resuming main playback if the preview paused it.
func (a *Arbiter) Stop() {
	a.teardown(true)
}

// CancelForMain ends any preview without touching the main player. The host
// calls it when main playback starts.
func (a *Arbiter) CancelForMain() {
	a.teardown(false)
}

func (a *Arbiter) playing(c *Controller) bool {
	return a.sess != nil && a.sess.owner == c && a.sess.playing
}

// start opens a new session for c. It reports false when the session could
// not be started and was already torn down.
func (a *Arbiter) start(c *Controller) bool {
	// The replaced session hands its pause over instead of resuming main.
	prev := a.sess
	inherited := prev != nil && prev.pausedMain
	a.teardown(false)
	c.state = Pressed

	a.nextID++
	s := &session{id: a.nextID, owner: c, marker: c.marker}
	a.sess = s

	if s.marker != nil {
		s.marker.SetDim(dimActiveOpacity)
		s.marker.SetRing(0, ringActiveOpacity)
	}

	wasPlaying := a.isMainPlaying()
	a.call("pause main", a.host.PauseMain)
	s.pausedMain = wasPlaying || inherited

	src := c.track.PreviewSource()
	if src == "" {
		logger.Log.Debug().Str("track", c.track.ID).Msg("No preview media, aborting preview")
		a.teardown(true)
		return false
	}

	id := s.id
	err := a.media.Open(src, MediaEvents{
		OnLoaded: func() { a.onLoaded(id) },
		OnEnded: func() {
			if a.current(id) {
				a.teardown(true)
			}
		},
	})
	if err != nil {
		logger.Log.Warn().Err(err).Str("track", c.track.ID).Msg("Could not open preview media")
		a.teardown(true)
		return false
	}
	return true
}

func (a *Arbiter) current(id uint64) bool {
	return a.sess != nil && a.sess.id == id
}

func (a *Arbiter) onLoaded(id uint64) {
	if !a.current(id) {
		return
	}
	s := a.sess
	window := a.opts.Window.Seconds()

	d := a.media.Duration()
	target := math.Max(5, math.Min(d-(window+2), d*a.opts.StartFraction))
	if !math.IsNaN(target) && !math.IsInf(target, 0) && target > 0 {
		if err := a.media.Seek(target); err != nil {
			logger.Log.Debug().Err(err).Float64("target", target).Msg("Preview seek failed")
		}
	}
	s.startOffset = a.media.CurrentTime()

	if err := a.media.Play(); err != nil {
		logger.Log.Warn().Err(err).Msg("Preview playback failed")
		a.teardown(true)
		return
	}
	s.playing = true
	s.frame = a.sched.RequestFrame(func(time.Time) { a.tick(id) })
	s.owner.previewStarted()
}

func (a *Arbiter) tick(id uint64) {
	if !a.current(id) {
		return
	}
	s := a.sess
	elapsed := a.media.CurrentTime() - s.startOffset
	ratio := math.Max(0, math.Min(1, elapsed/a.opts.Window.Seconds()))
	target := ratio * 360
	s.angle += (target - s.angle) * a.opts.Smoothing
	if s.marker != nil {
		s.marker.SetRing(s.angle, ringActiveOpacity)
	}
	if ratio >= 1 {
		a.teardown(true)
		return
	}
	s.frame = a.sched.RequestFrame(func(time.Time) { a.tick(id) })
}

// release tears down the session if c owns it.
func (a *Arbiter) release(c *Controller, resume bool) {
	if a.sess != nil && a.sess.owner == c {
		a.teardown(resume)
	}
}

// teardown is the only way a session ends. It stops audio, cancels the frame
// loop, resets the marker and resumes main playback only when this session
// paused it and resume is requested.
func (a *Arbiter) teardown(resume bool) {
	s := a.sess
	if s == nil {
		return
	}
	a.sess = nil

	if err := a.media.Close(); err != nil {
		logger.Log.Debug().Err(err).Msg("Closing preview media failed")
	}
	if s.frame != nil {
		s.frame.Stop()
	}
	if s.marker != nil {
		s.marker.SetRing(0, ringIdleOpacity)
		s.marker.SetDim(0)
	}
	if resume && s.pausedMain {
		a.call("resume main", a.host.ResumeMain)
	}
	s.owner.sessionEnded()
}

func (a *Arbiter) isMainPlaying() (playing bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Debug().Interface("panic", r).Msg("isMainPlaying panicked")
			playing = false
		}
	}()
	return a.host.IsMainPlaying()
}

func (a *Arbiter) call(op string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Debug().Interface("panic", r).Str("op", op).Msg("Host callback panicked")
		}
	}()
	if err := fn(); err != nil {
		logger.Log.Debug().Err(err).Str("op", op).Msg("Host callback failed")
	}
}
