package player

import (
	"context"
	"sync"
	"time"

	"rydm/internal/clock"
	"rydm/internal/logger"
	"rydm/internal/preview"
)

const defaultPollInterval = 100 * time.Millisecond

// MpvMedia plays previews on a dedicated mpv instance. Load and end
// notifications are detected by polling and delivered through a Poster so
// they run on the scheduler's thread.
type MpvMedia struct {
	player   *MpvPlayer
	poster   clock.Poster
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	pos     float64
	dur     float64
	playing bool
	since   time.Time
}

var _ preview.Media = (*MpvMedia)(nil)

func NewMpvMedia(player *MpvPlayer, poster clock.Poster) *MpvMedia {
	return &MpvMedia{
		player:   player,
		poster:   poster,
		interval: defaultPollInterval,
		now:      time.Now,
	}
}

func (m *MpvMedia) Open(src string, events preview.MediaEvents) error {
	m.mu.Lock()
	m.stopPollLocked()
	m.gen++
	gen := m.gen
	m.pos, m.dur, m.playing = 0, 0, false
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mu.Unlock()

	if err := m.player.load(src, true); err != nil {
		cancel()
		return err
	}
	go m.poll(ctx, gen, events)
	return nil
}

func (m *MpvMedia) poll(ctx context.Context, gen uint64, events preview.MediaEvents) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	loaded := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		state, err := m.player.GetState()
		if err != nil {
			logger.Log.Debug().Err(err).Msg("Preview state poll failed")
			continue
		}

		m.mu.Lock()
		if m.gen != gen {
			m.mu.Unlock()
			return
		}
		if state.Duration > 0 {
			m.dur = state.Duration
		}
		if state.Position > 0 {
			m.pos = state.Position
			m.since = m.now()
		}
		m.mu.Unlock()

		switch {
		case !loaded && state.Duration > 0 && !state.Idle:
			loaded = true
			m.deliver(gen, events.OnLoaded)
		case loaded && state.Idle:
			m.deliver(gen, events.OnEnded)
			return
		}
	}
}

// deliver posts fn unless the media was reopened or closed in the meantime.
func (m *MpvMedia) deliver(gen uint64, fn func()) {
	if fn == nil {
		return
	}
	m.poster.Post(func() {
		m.mu.Lock()
		current := m.gen == gen
		m.mu.Unlock()
		if current {
			fn()
		}
	})
}

func (m *MpvMedia) Play() error {
	m.mu.Lock()
	m.playing = true
	m.since = m.now()
	m.mu.Unlock()
	return m.player.SetPaused(false)
}

func (m *MpvMedia) Seek(seconds float64) error {
	m.mu.Lock()
	m.pos = seconds
	m.since = m.now()
	m.mu.Unlock()
	return m.player.Seek(seconds)
}

// CurrentTime extrapolates from the last known position so per-frame reads
// never touch the socket.
func (m *MpvMedia) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.playing {
		return m.pos
	}
	t := m.pos + m.now().Sub(m.since).Seconds()
	if m.dur > 0 && t > m.dur {
		return m.dur
	}
	return t
}

func (m *MpvMedia) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dur
}

func (m *MpvMedia) Close() error {
	m.mu.Lock()
	m.stopPollLocked()
	m.gen++
	m.pos, m.dur, m.playing = 0, 0, false
	m.mu.Unlock()
	return m.player.Stop()
}

// Shutdown closes the media and terminates its mpv process.
func (m *MpvMedia) Shutdown() error {
	m.Close()
	return m.player.Close()
}

func (m *MpvMedia) stopPollLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}
