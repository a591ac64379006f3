package domain

import "time"

// Track is a catalogue entry that can be previewed on a pin or played in full.
type Track struct {
	ID         string `json:"id" mapstructure:"id"`
	Title      string `json:"title" mapstructure:"title"`
	Artist     string `json:"artist" mapstructure:"artist"`
	Album      string `json:"album,omitempty" mapstructure:"album"`
	CoverURL   string `json:"cover,omitempty" mapstructure:"cover"`
	PreviewURL string `json:"previewUrl,omitempty" mapstructure:"previewUrl"`
	AudioURL   string `json:"audioUrl,omitempty" mapstructure:"audioUrl"`
	Duration   int    `json:"duration,omitempty" mapstructure:"duration"`
	Href       string `json:"href,omitempty" mapstructure:"href"`
	Genre      string `json:"genre,omitempty" mapstructure:"genre"`
}

// PreviewSource is the media used for a pin preview, falling back to the
// full audio when no dedicated preview exists.
func (t Track) PreviewSource() string {
	if t.PreviewURL != "" {
		return t.PreviewURL
	}
	return t.AudioURL
}

// StreamSource is the media used for full playback.
func (t Track) StreamSource() string {
	if t.AudioURL != "" {
		return t.AudioURL
	}
	return t.PreviewURL
}

type HistoryEntry struct {
	Track    Track
	PlayedAt time.Time
}
