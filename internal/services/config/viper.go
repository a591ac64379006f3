package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"rydm/internal/domain"
	"rydm/internal/logger"
	"rydm/internal/ports"

	"github.com/spf13/viper"
)

var defaultArtistSeeds = []string{
	"tems", "sza", "brent faiyaz", "victoria monet", "giveon", "h.e.r.",
	"the weeknd", "miguel", "ty dolla $ign", "summer walker", "reezy",
	"6lack", "jhené aiko", "khalid", "partynextdoor",
}

// defaultTracks is the offline playlist. Media paths are left empty in the
// written config for the user to fill in; tracks without media get no pin.
var defaultTracks = []map[string]any{
	{"id": "t_replay_tems", "title": "Replay", "artist": "Tems", "audioUrl": "", "previewUrl": ""},
	{"id": "t_timeless_weeknd", "title": "Timeless", "artist": "The Weeknd", "audioUrl": "", "previewUrl": ""},
	{"id": "t_trappers_lullaby", "title": "TRAPPERS LULLABY", "artist": "Reezy", "audioUrl": "", "previewUrl": ""},
}

type ViperConfigService struct {
	v *viper.Viper
}

func NewViperConfigService() ports.ConfigService {
	var dirs []string
	configDir, err := os.UserConfigDir()
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Could not find user config directory, using current directory")
	}

	if configDir != "" {
		rydmConfigDir := filepath.Join(configDir, "rydm")
		if err := os.MkdirAll(rydmConfigDir, 0755); err != nil {
			logger.Log.Error().Err(err).Msg("Could not create rydm config directory")
		} else {
			dirs = append(dirs, rydmConfigDir)
		}
	}
	return newViperConfigService(append(dirs, ".")...)
}

// newViperConfigService searches dirs in order. A missing file is written to
// the first one.
func newViperConfigService(dirs ...string) *ViperConfigService {
	v := viper.New()
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix("rydm")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return &ViperConfigService{v: v}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("historyLimit", 50)
	v.SetDefault("logLevel", "info")

	v.SetDefault("map.centerLng", 9.1829)
	v.SetDefault("map.centerLat", 48.7758)
	v.SetDefault("map.zoom", 12.5)
	v.SetDefault("map.radius", 800.0)
	v.SetDefault("map.pinCount", 5)
	v.SetDefault("map.seedDistance", 100.0)
	v.SetDefault("map.seedDebounce", "120ms")
	v.SetDefault("map.flyDuration", "600ms")
	v.SetDefault("map.resultZoom", 15.0)

	v.SetDefault("preview.window", "15s")
	v.SetDefault("preview.holdThreshold", "480ms")
	v.SetDefault("preview.startFraction", 0.35)
	v.SetDefault("preview.smoothing", 0.22)

	v.SetDefault("catalog.baseURL", "https://itunes.apple.com/search")
	v.SetDefault("catalog.country", "DE")
	v.SetDefault("catalog.lang", "de_de")
	v.SetDefault("catalog.limit", 50)
	v.SetDefault("catalog.minYear", 2018)
	v.SetDefault("catalog.perArtistCap", 2)
	v.SetDefault("catalog.artistSeeds", defaultArtistSeeds)
	v.SetDefault("catalog.genericTerms", []string{"r&b", "neo soul", "r&b soul"})
	v.SetDefault("catalog.timeout", "10s")

	v.SetDefault("playback.mainSocket", filepath.Join(os.TempDir(), "rydm-main.sock"))
	v.SetDefault("playback.previewSocket", filepath.Join(os.TempDir(), "rydm-preview.sock"))
	v.SetDefault("playback.volume", 80)
	v.SetDefault("playback.loop", false)

	v.SetDefault("tracks", defaultTracks)
}

func (s *ViperConfigService) Load() (domain.Config, error) {
	var cfg domain.Config

	if err := s.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			logger.Log.Info().Msg("Config file not found, creating with default values.")
			if err := s.v.SafeWriteConfig(); err != nil {
				return cfg, err
			}
		} else {
			return cfg, err
		}
	}

	if err := s.v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
