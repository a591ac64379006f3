package preview

import "rydm/internal/domain"

// MediaEvents are invoked by a Media on the scheduler's thread.
type MediaEvents struct {
	// OnLoaded fires once duration and seeking are available.
	OnLoaded func()
	// OnEnded fires when playback reaches the natural end of the media.
	OnEnded func()
}

// Media is the single audio resource used for previews. Open replaces
// whatever was loaded before; Close stops playback, drops the source and
// guarantees no further events for it.
type Media interface {
	Open(src string, events MediaEvents) error
	Play() error
	Seek(seconds float64) error
	CurrentTime() float64
	Duration() float64
	Close() error
}

// Host is the main player as seen from the preview subsystem. Every call is
// best effort: errors and panics are logged and ignored.
type Host interface {
	PauseMain() error
	ResumeMain() error
	IsMainPlaying() bool
	PlayFull(track domain.Track) error
}

// Marker is the visual handle of a pin: a progress ring and a dim layer
// over the cover.
type Marker interface {
	SetRing(degrees, opacity float64)
	SetDim(opacity float64)
}

// GestureLock disables the owning surface's pan and zoom while a pin is held.
type GestureLock interface {
	DisableGestures()
	EnableGestures()
}

const (
	ringIdleOpacity   = 0.55
	ringActiveOpacity = 0.7
	dimActiveOpacity  = 0.35
)
