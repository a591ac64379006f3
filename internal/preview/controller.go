package preview

import (
	"rydm/internal/clock"
	"rydm/internal/domain"
	"rydm/internal/logger"
)

type State int

const (
	Idle State = iota
	Pressed
	Previewing
	Escalated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pressed:
		return "pressed"
	case Previewing:
		return "previewing"
	case Escalated:
		return "escalated"
	default:
		return "unknown"
	}
}

// Controller owns the gesture state of one pin. It lives exactly as long as
// the pin's marker.
type Controller struct {
	arb    *Arbiter
	track  domain.Track
	marker Marker
	lock   GestureLock

	state            State
	held             bool
	wasRunningOnDown bool
	hold             clock.Timer
	destroyed        bool
}

func NewController(arb *Arbiter, track domain.Track, marker Marker, lock GestureLock) *Controller {
	return &Controller{arb: arb, track: track, marker: marker, lock: lock}
}

func (c *Controller) Track() domain.Track { return c.track }
func (c *Controller) State() State        { return c.state }
func (c *Controller) Held() bool          { return c.held }

// Press starts a preview unless this pin is already previewing, locks the
// surface gestures and arms the hold timer.
func (c *Controller) Press() {
	if c.destroyed || c.held {
		return
	}
	c.held = true
	c.wasRunningOnDown = c.arb.playing(c)

	if !c.wasRunningOnDown {
		c.arb.start(c)
	}

	if c.lock != nil {
		c.lock.DisableGestures()
	}
	c.hold = c.arb.sched.AfterFunc(c.arb.opts.HoldThreshold, c.escalate)
}

// Release ends the press. A quick tap on an idle pin leaves the preview
// running; a tap on a pin that was already previewing stops it.
func (c *Controller) Release() {
	if !c.held {
		return
	}
	c.held = false
	c.stopHold()
	if c.lock != nil {
		c.lock.EnableGestures()
	}

	if c.state == Escalated {
		c.state = Idle
		return
	}
	if c.wasRunningOnDown {
		c.arb.release(c, true)
		c.state = Idle
	}
}

// StartPreview (re)starts this pin's preview without a gesture. A running
// preview of the same pin restarts from zero.
func (c *Controller) StartPreview() {
	if c.destroyed {
		return
	}
	c.arb.start(c)
}

// Destroy tears down any session owned by this pin and releases the gesture
// lock if the pin is still held.
func (c *Controller) Destroy() {
	if c.destroyed {
		return
	}
	if c.held {
		c.held = false
		c.stopHold()
		if c.lock != nil {
			c.lock.EnableGestures()
		}
	}
	c.arb.release(c, true)
	c.destroyed = true
	c.state = Idle
}

func (c *Controller) escalate() {
	c.hold = nil
	if !c.held || c.destroyed {
		return
	}
	c.arb.release(c, false)
	c.state = Escalated
	logger.Log.Info().Str("track", c.track.ID).Msg("Hold escalated to full playback")
	c.arb.call("play full", func() error { return c.arb.host.PlayFull(c.track) })
}

func (c *Controller) stopHold() {
	if c.hold != nil {
		c.hold.Stop()
		c.hold = nil
	}
}

func (c *Controller) previewStarted() {
	c.state = Previewing
}

func (c *Controller) sessionEnded() {
	if c.state == Pressed || c.state == Previewing {
		c.state = Idle
	}
}
