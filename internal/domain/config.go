package domain

import "time"

type Config struct {
	HistoryLimit int            `mapstructure:"historyLimit"`
	LogLevel     string         `mapstructure:"logLevel"`
	Map          MapConfig      `mapstructure:"map"`
	Preview      PreviewConfig  `mapstructure:"preview"`
	Catalog      CatalogConfig  `mapstructure:"catalog"`
	Playback     PlaybackConfig `mapstructure:"playback"`
	Tracks       []Track        `mapstructure:"tracks"`
}

type MapConfig struct {
	CenterLng    float64       `mapstructure:"centerLng"`
	CenterLat    float64       `mapstructure:"centerLat"`
	Zoom         float64       `mapstructure:"zoom"`
	Radius       float64       `mapstructure:"radius"`
	PinCount     int           `mapstructure:"pinCount"`
	SeedDistance float64       `mapstructure:"seedDistance"`
	SeedDebounce time.Duration `mapstructure:"seedDebounce"`
	FlyDuration  time.Duration `mapstructure:"flyDuration"`
	ResultZoom   float64       `mapstructure:"resultZoom"`
}

type PreviewConfig struct {
	Window        time.Duration `mapstructure:"window"`
	HoldThreshold time.Duration `mapstructure:"holdThreshold"`
	StartFraction float64       `mapstructure:"startFraction"`
	Smoothing     float64       `mapstructure:"smoothing"`
}

type CatalogConfig struct {
	BaseURL      string        `mapstructure:"baseURL"`
	Country      string        `mapstructure:"country"`
	Lang         string        `mapstructure:"lang"`
	Limit        int           `mapstructure:"limit"`
	MinYear      int           `mapstructure:"minYear"`
	PerArtistCap int           `mapstructure:"perArtistCap"`
	ArtistSeeds  []string      `mapstructure:"artistSeeds"`
	GenericTerms []string      `mapstructure:"genericTerms"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type PlaybackConfig struct {
	MainSocket    string `mapstructure:"mainSocket"`
	PreviewSocket string `mapstructure:"previewSocket"`
	Volume        int    `mapstructure:"volume"`
	Loop          bool   `mapstructure:"loop"`
}
