package preview

import (
	"errors"
	"testing"
	"time"

	"rydm/internal/clock"
	"rydm/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

const loadDelay = 50 * time.Millisecond

type fakeMedia struct {
	sched    *clock.Virtual
	duration float64

	opens, closes int
	src           string
	gen           int
	events        MediaEvents
	open          bool
	playing       bool
	pos           float64
	playStart     time.Time
	failOpen      error
}

func newFakeMedia(sched *clock.Virtual, duration float64) *fakeMedia {
	return &fakeMedia{sched: sched, duration: duration}
}

func (m *fakeMedia) Open(src string, ev MediaEvents) error {
	if m.failOpen != nil {
		return m.failOpen
	}
	m.opens++
	m.gen++
	m.src, m.events, m.open, m.playing, m.pos = src, ev, true, false, 0
	gen := m.gen
	m.sched.AfterFunc(loadDelay, func() {
		if m.open && m.gen == gen && m.events.OnLoaded != nil {
			m.events.OnLoaded()
		}
	})
	return nil
}

func (m *fakeMedia) Play() error {
	m.playing = true
	m.playStart = m.sched.Now()
	return nil
}

func (m *fakeMedia) Seek(seconds float64) error {
	m.pos = seconds
	if m.playing {
		m.playStart = m.sched.Now()
	}
	return nil
}

func (m *fakeMedia) CurrentTime() float64 {
	if !m.playing {
		return m.pos
	}
	return m.pos + m.sched.Now().Sub(m.playStart).Seconds()
}

func (m *fakeMedia) Duration() float64 { return m.duration }

func (m *fakeMedia) Close() error {
	if m.open {
		m.closes++
	}
	m.open, m.playing = false, false
	m.events = MediaEvents{}
	return nil
}

func (m *fakeMedia) end() {
	if m.events.OnEnded != nil {
		m.events.OnEnded()
	}
}

type fakeHost struct {
	playing         bool
	pauses, resumes int
	full            []domain.Track
	failWith        error
	panicOnPause    bool
}

func (h *fakeHost) PauseMain() error {
	h.pauses++
	if h.panicOnPause {
		panic("audio element gone")
	}
	if h.failWith != nil {
		return h.failWith
	}
	h.playing = false
	return nil
}

func (h *fakeHost) ResumeMain() error {
	h.resumes++
	if h.failWith != nil {
		return h.failWith
	}
	h.playing = true
	return nil
}

func (h *fakeHost) IsMainPlaying() bool { return h.playing }

func (h *fakeHost) PlayFull(track domain.Track) error {
	h.full = append(h.full, track)
	h.playing = true
	return h.failWith
}

type fakeMarker struct {
	ring, ringOpacity, dim float64
}

func (m *fakeMarker) SetRing(deg, opacity float64) { m.ring, m.ringOpacity = deg, opacity }
func (m *fakeMarker) SetDim(opacity float64)       { m.dim = opacity }

type fakeLock struct{ disabled int }

func (l *fakeLock) DisableGestures() { l.disabled++ }
func (l *fakeLock) EnableGestures()  { l.disabled-- }

type rig struct {
	sched *clock.Virtual
	media *fakeMedia
	host  *fakeHost
	arb   *Arbiter
	lock  *fakeLock
}

func newRig(t *testing.T) *rig {
	t.Helper()
	sched := clock.NewVirtual(epoch)
	media := newFakeMedia(sched, 30)
	host := &fakeHost{}
	return &rig{
		sched: sched,
		media: media,
		host:  host,
		arb:   NewArbiter(sched, media, host, DefaultOptions()),
		lock:  &fakeLock{},
	}
}

func (r *rig) pin(id string) (*Controller, *fakeMarker) {
	marker := &fakeMarker{}
	track := domain.Track{ID: id, Title: id, PreviewURL: "https://example.com/" + id + ".m4a"}
	return NewController(r.arb, track, marker, r.lock), marker
}

func (r *rig) tap(c *Controller, hold time.Duration) {
	c.Press()
	r.sched.Advance(hold)
	c.Release()
}

func TestController_QuickTapKeepsPreviewing(t *testing.T) {
	r := newRig(t)
	c, marker := r.pin("a")

	r.tap(c, 200*time.Millisecond)

	assert.Equal(t, Previewing, c.State())
	assert.Empty(t, r.host.full)
	assert.True(t, r.media.playing)
	assert.Equal(t, dimActiveOpacity, marker.dim)
	assert.Greater(t, marker.ring, 0.0)
	assert.Zero(t, r.lock.disabled, "gestures must be re-enabled after release")
}

func TestController_HoldEscalatesToFullPlay(t *testing.T) {
	r := newRig(t)
	c, marker := r.pin("a")

	c.Press()
	assert.Equal(t, 1, r.lock.disabled)
	r.sched.Advance(600 * time.Millisecond)

	assert.Equal(t, Escalated, c.State())
	require.Len(t, r.host.full, 1)
	assert.Equal(t, "a", r.host.full[0].ID)
	assert.False(t, r.media.open, "cancelled preview must not leave audio running")
	assert.Nil(t, r.arb.Owner())
	assert.Zero(t, marker.ring)
	assert.Zero(t, marker.dim)

	c.Release()
	assert.Equal(t, Idle, c.State())
	assert.Zero(t, r.lock.disabled)
	assert.Zero(t, r.sched.Pending(), "no frame callbacks or timers may survive escalation")
}

func TestController_HoldDoesNotResumeMain(t *testing.T) {
	r := newRig(t)
	r.host.playing = true
	c, _ := r.pin("a")

	c.Press()
	r.sched.Advance(600 * time.Millisecond)
	c.Release()

	assert.Equal(t, 1, r.host.pauses)
	assert.Zero(t, r.host.resumes)
}

func TestController_TapOnPreviewingPinStopsAndResumes(t *testing.T) {
	r := newRig(t)
	r.host.playing = true
	c, marker := r.pin("a")

	r.tap(c, 100*time.Millisecond)
	require.Equal(t, Previewing, c.State())
	assert.False(t, r.host.playing)

	r.sched.Advance(2 * time.Second)
	r.tap(c, 100*time.Millisecond)

	assert.Equal(t, Idle, c.State())
	assert.False(t, r.media.open)
	assert.True(t, r.host.playing)
	assert.Equal(t, 1, r.host.resumes)
	assert.Zero(t, marker.ring)
	assert.Zero(t, r.sched.Pending())
}

func TestController_NaturalCompletionRestoresMain(t *testing.T) {
	testCases := []struct {
		name        string
		mainPlaying bool
	}{
		{name: "main was playing", mainPlaying: true},
		{name: "main was idle", mainPlaying: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRig(t)
			r.host.playing = tc.mainPlaying
			c, marker := r.pin("a")

			r.tap(c, 100*time.Millisecond)
			r.sched.Advance(16 * time.Second)

			assert.Equal(t, Idle, c.State())
			assert.False(t, r.media.open)
			assert.Equal(t, tc.mainPlaying, r.host.playing)
			assert.Zero(t, marker.ring)
			assert.Zero(t, r.sched.Pending())
		})
	}
}

func TestController_MediaEndEndsSession(t *testing.T) {
	r := newRig(t)
	r.host.playing = true
	c, _ := r.pin("a")

	r.tap(c, 100*time.Millisecond)
	r.sched.Advance(3 * time.Second)
	r.media.end()

	assert.Equal(t, Idle, c.State())
	assert.True(t, r.host.playing)
	assert.Zero(t, r.sched.Pending())
}

func TestController_AtMostOnePreview(t *testing.T) {
	r := newRig(t)
	a, markerA := r.pin("a")
	b, markerB := r.pin("b")

	r.tap(a, 100*time.Millisecond)
	r.sched.Advance(3 * time.Second)
	require.Greater(t, markerA.ring, 0.0)

	r.tap(b, 100*time.Millisecond)

	assert.Equal(t, 1, r.media.opens-r.media.closes, "exactly one audio resource may be active")
	assert.Same(t, b, r.arb.Owner())
	assert.Equal(t, Idle, a.State())
	assert.Equal(t, Previewing, b.State())
	assert.Zero(t, markerA.ring)
	assert.Zero(t, markerA.dim)
	assert.Equal(t, "https://example.com/b.m4a", r.media.src)
	assert.Greater(t, markerB.ring, 0.0)
}

func TestController_RestartOnSamePinResetsProgress(t *testing.T) {
	r := newRig(t)
	a, marker := r.pin("a")

	r.tap(a, 100*time.Millisecond)
	r.sched.Advance(4 * time.Second)
	require.Greater(t, r.arb.Progress(), 10.0)

	a.StartPreview()

	assert.Zero(t, r.arb.Progress())
	assert.Zero(t, marker.ring)
	assert.Equal(t, 1, r.media.opens-r.media.closes)
	assert.Equal(t, Pressed, a.State())

	r.sched.Advance(loadDelay + clock.FrameInterval)
	assert.Equal(t, Previewing, a.State())
	assert.Less(t, marker.ring, 10.0)
}

func TestController_ReplacingSessionKeepsPauseResumeSymmetry(t *testing.T) {
	r := newRig(t)
	r.host.playing = true
	a, _ := r.pin("a")
	b, _ := r.pin("b")

	r.tap(a, 100*time.Millisecond)
	r.tap(b, 100*time.Millisecond)
	assert.False(t, r.host.playing)

	r.sched.Advance(16 * time.Second)
	assert.True(t, r.host.playing)
	assert.Equal(t, Idle, b.State())
}

func TestController_ReplacingSessionKeepsMainPaused(t *testing.T) {
	testCases := []struct {
		name     string
		swapFail error
	}{
		{name: "host callbacks succeed"},
		{name: "host callbacks fail during the swap", swapFail: errors.New("audio element busy")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRig(t)
			r.host.playing = true
			a, _ := r.pin("a")
			b, _ := r.pin("b")

			r.tap(a, 100*time.Millisecond)
			require.False(t, r.host.playing)
			resumes := r.host.resumes

			r.host.failWith = tc.swapFail
			r.tap(b, 100*time.Millisecond)
			r.host.failWith = nil

			assert.Equal(t, resumes, r.host.resumes, "main is not resumed between sessions")
			assert.False(t, r.host.playing)
			assert.Equal(t, b, r.arb.Owner())

			r.sched.Advance(16 * time.Second)
			assert.True(t, r.host.playing, "main resumes once the replacing preview ends")
			assert.Equal(t, resumes+1, r.host.resumes)
			assert.Equal(t, Idle, b.State())
		})
	}
}

func TestController_ReplacingSessionNeverResumesUnpausedMain(t *testing.T) {
	r := newRig(t)
	a, _ := r.pin("a")
	b, _ := r.pin("b")

	r.tap(a, 100*time.Millisecond)
	r.tap(b, 100*time.Millisecond)
	r.sched.Advance(16 * time.Second)

	assert.Zero(t, r.host.resumes)
	assert.False(t, r.host.playing)
}

func TestController_MissingPreviewTearsDownCleanly(t *testing.T) {
	r := newRig(t)
	r.host.playing = true
	marker := &fakeMarker{}
	c := NewController(r.arb, domain.Track{ID: "silent"}, marker, r.lock)

	r.tap(c, 100*time.Millisecond)

	assert.Equal(t, Idle, c.State())
	assert.Zero(t, r.media.opens)
	assert.Equal(t, 1, r.host.pauses)
	assert.True(t, r.host.playing, "main paused for this press must be resumed")
	assert.Nil(t, r.arb.Owner())
	assert.Zero(t, marker.dim)
	assert.Zero(t, r.sched.Pending())
	assert.Zero(t, r.lock.disabled)
}

func TestController_OpenFailureTearsDownCleanly(t *testing.T) {
	r := newRig(t)
	r.media.failOpen = errors.New("no decoder")
	c, _ := r.pin("a")

	r.tap(c, 100*time.Millisecond)

	assert.Equal(t, Idle, c.State())
	assert.Nil(t, r.arb.Owner())
	assert.Zero(t, r.sched.Pending())
}

func TestController_HostFailuresAreSwallowed(t *testing.T) {
	r := newRig(t)
	r.host.playing = true
	r.host.panicOnPause = true
	c, _ := r.pin("a")

	require.NotPanics(t, func() { r.tap(c, 100*time.Millisecond) })
	assert.Equal(t, Previewing, c.State())

	r.host.panicOnPause = false
	r.host.failWith = errors.New("player unavailable")
	require.NotPanics(t, func() {
		c.Press()
		r.sched.Advance(time.Second)
		c.Release()
	})
	assert.Equal(t, Idle, c.State())
	assert.Len(t, r.host.full, 1)
}

func TestController_StartOffset(t *testing.T) {
	testCases := []struct {
		name     string
		duration float64
		expected float64
	}{
		{name: "30s preview clip", duration: 30, expected: 10.5},
		{name: "full length track", duration: 200, expected: 70},
		{name: "short clip", duration: 10, expected: 5},
		{name: "unknown duration", duration: 0, expected: 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRig(t)
			r.media.duration = tc.duration
			c, _ := r.pin("a")

			c.Press()
			r.sched.Advance(loadDelay)
			c.Release()

			require.Equal(t, Previewing, c.State())
			assert.InDelta(t, tc.expected, r.arb.sess.startOffset, 1e-9)
		})
	}
}

func TestController_RingIsSmoothed(t *testing.T) {
	r := newRig(t)
	c, marker := r.pin("a")

	c.Press()
	r.sched.Advance(loadDelay)
	c.Release()

	r.sched.Advance(clock.FrameInterval)
	elapsed := clock.FrameInterval.Seconds()
	target := elapsed / 15 * 360
	assert.InDelta(t, target*0.22, marker.ring, 1e-6)
	assert.Equal(t, ringActiveOpacity, marker.ringOpacity)

	r.sched.Advance(10 * time.Second)
	assert.InDelta(t, 10.0/15*360, marker.ring, 3)
}

func TestController_DestroyReleasesEverything(t *testing.T) {
	r := newRig(t)
	r.host.playing = true
	c, marker := r.pin("a")

	c.Press()
	r.sched.Advance(200 * time.Millisecond)
	c.Destroy()

	assert.Equal(t, Idle, c.State())
	assert.False(t, r.media.open)
	assert.Zero(t, marker.dim)
	assert.Zero(t, r.lock.disabled)
	assert.True(t, r.host.playing)
	assert.Zero(t, r.sched.Pending())

	c.Press()
	assert.False(t, c.Held(), "destroyed controllers ignore gestures")
}

func TestArbiter_CancelForMainDoesNotResume(t *testing.T) {
	r := newRig(t)
	r.host.playing = true
	c, _ := r.pin("a")

	r.tap(c, 100*time.Millisecond)
	r.arb.CancelForMain()

	assert.Equal(t, Idle, c.State())
	assert.Zero(t, r.host.resumes)
	assert.Zero(t, r.sched.Pending())
}
