// Package playback owns the main player: the active playlist, the current
// index and the policy that main playback always wins over previews.
package playback

import (
	"errors"
	"math"
	"time"

	"rydm/internal/domain"
	"rydm/internal/logger"
	"rydm/internal/ports"
	"rydm/internal/preview"
)

var ErrNoTrack = errors.New("no track to play")

type Mode int

const (
	ModeOnline Mode = iota
	ModeLocal
)

func (m Mode) String() string {
	if m == ModeLocal {
		return "local"
	}
	return "online"
}

type Host struct {
	player  ports.PlayerService
	storage ports.StorageService
	arb     *preview.Arbiter
	now     func() time.Time

	local  []domain.Track
	online []domain.Track
	mode   Mode
	index  int

	playing bool
	loaded  string
	active  bool
	state   ports.PlayerState
}

var _ preview.Host = (*Host)(nil)

func NewHost(player ports.PlayerService, storage ports.StorageService, local []domain.Track) *Host {
	return &Host{
		player:  player,
		storage: storage,
		now:     time.Now,
		local:   local,
	}
}

// SetArbiter connects the preview arbiter so starting main playback can
// cancel a running preview.
func (h *Host) SetArbiter(arb *preview.Arbiter) {
	h.arb = arb
}

// SetOnline installs the discovered playlist. The current track keeps
// playing if it is part of the new list.
func (h *Host) SetOnline(tracks []domain.Track) {
	cur, ok := h.Current()
	h.online = tracks
	h.index = 0
	if ok {
		h.selectID(cur.ID)
	}
}

func (h *Host) SetMode(m Mode) {
	cur, ok := h.Current()
	h.mode = m
	h.index = 0
	if ok {
		h.selectID(cur.ID)
	}
}

func (h *Host) Mode() Mode { return h.mode }

// Playlist is the online list when one is loaded and selected, the local
// list otherwise.
func (h *Host) Playlist() []domain.Track {
	if h.mode == ModeOnline && len(h.online) > 0 {
		return h.online
	}
	return h.local
}

// CandidateItems feeds the map surfaces. Tracks without any media are left
// out so no pin is placed that could never play.
func (h *Host) CandidateItems() []domain.Track {
	list := h.Playlist()
	out := make([]domain.Track, 0, len(list))
	for _, t := range list {
		if t.PreviewSource() != "" {
			out = append(out, t)
		}
	}
	return out
}

func (h *Host) Index() int { return h.index }

func (h *Host) Current() (domain.Track, bool) {
	list := h.Playlist()
	if len(list) == 0 {
		return domain.Track{}, false
	}
	if h.index < 0 || h.index >= len(list) {
		return list[0], true
	}
	return list[h.index], true
}

func (h *Host) IsPlaying() bool { return h.playing }

func (h *Host) State() ports.PlayerState { return h.state }

// Play starts or resumes the current track. Any preview is cancelled first.
func (h *Host) Play() error {
	if h.arb != nil {
		h.arb.CancelForMain()
	}
	cur, ok := h.Current()
	if !ok || cur.StreamSource() == "" {
		return ErrNoTrack
	}

	if h.loaded == cur.ID {
		if err := h.player.SetPaused(false); err != nil {
			return err
		}
		h.playing = true
		return nil
	}

	if err := h.player.Play(cur.StreamSource()); err != nil {
		h.playing = false
		return err
	}
	h.loaded = cur.ID
	h.active = false
	h.playing = true
	h.record(cur)
	return nil
}

func (h *Host) Pause() error {
	h.playing = false
	if h.loaded == "" {
		return nil
	}
	return h.player.SetPaused(true)
}

func (h *Host) Toggle() error {
	if h.playing {
		return h.Pause()
	}
	return h.Play()
}

func (h *Host) Next() error {
	return h.step(1)
}

func (h *Host) Prev() error {
	return h.step(-1)
}

func (h *Host) step(delta int) error {
	n := len(h.Playlist())
	if n == 0 {
		return ErrNoTrack
	}
	h.index = ((h.index+delta)%n + n) % n
	if h.playing {
		return h.Play()
	}
	return nil
}

// SetTrackByID selects a track of the current playlist without playing it.
func (h *Host) SetTrackByID(id string) bool {
	return h.selectID(id)
}

func (h *Host) selectID(id string) bool {
	for i, t := range h.Playlist() {
		if t.ID == id {
			h.index = i
			return true
		}
	}
	return false
}

// Seek moves the main player, clamped to the loaded track.
func (h *Host) Seek(seconds float64) error {
	if h.loaded == "" {
		return nil
	}
	if h.state.Duration > 0 {
		seconds = math.Min(h.state.Duration-0.1, seconds)
	}
	return h.player.Seek(math.Max(0, seconds))
}

// PlayFull makes track the main track and plays it. A track outside the
// current playlist is inserted after the current position.
func (h *Host) PlayFull(track domain.Track) error {
	if !h.selectID(track.ID) {
		h.insertAfterCurrent(track)
	}
	return h.Play()
}

func (h *Host) insertAfterCurrent(track domain.Track) {
	at := 0
	if len(h.Playlist()) > 0 {
		at = h.index + 1
	}
	if h.mode == ModeOnline && len(h.online) > 0 {
		h.online = insertAt(h.online, at, track)
	} else {
		h.local = insertAt(h.local, at, track)
	}
	h.index = at
}

func insertAt(list []domain.Track, at int, t domain.Track) []domain.Track {
	out := make([]domain.Track, 0, len(list)+1)
	out = append(out, list[:at]...)
	out = append(out, t)
	return append(out, list[at:]...)
}

func (h *Host) PauseMain() error {
	return h.Pause()
}

func (h *Host) ResumeMain() error {
	return h.Play()
}

func (h *Host) IsMainPlaying() bool {
	return h.playing
}

// Poll refreshes the player state and advances to the next track once the
// current one has played to its end.
func (h *Host) Poll() (ports.PlayerState, error) {
	state, err := h.player.GetState()
	if err != nil {
		return h.state, err
	}
	h.state = state

	if h.loaded == "" {
		return state, nil
	}
	if !state.Idle {
		h.active = true
		return state, nil
	}
	if h.active && h.playing {
		logger.Log.Info().Str("track", h.loaded).Msg("Track ended, advancing")
		h.loaded = ""
		h.active = false
		if err := h.Next(); err != nil {
			return state, err
		}
	}
	return state, nil
}

func (h *Host) record(t domain.Track) {
	if h.storage == nil {
		return
	}
	if err := h.storage.AddToHistory(domain.HistoryEntry{Track: t, PlayedAt: h.now()}); err != nil {
		logger.Log.Warn().Err(err).Str("track", t.ID).Msg("Could not record play in history")
	}
}

func (h *Host) Close() error {
	return h.player.Close()
}
