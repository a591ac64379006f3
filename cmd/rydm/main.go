package main

import (
	"fmt"
	"os"
	"path/filepath"

	"rydm/internal/clock"
	"rydm/internal/domain"
	"rydm/internal/geo"
	"rydm/internal/logger"
	"rydm/internal/mapsync"
	"rydm/internal/playback"
	"rydm/internal/preview"
	"rydm/internal/services/catalog"
	"rydm/internal/services/config"
	"rydm/internal/services/player"
	"rydm/internal/services/storage"
	"rydm/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

const loopBuffer = 64

func main() {
	cfg, err := config.NewViperConfigService().Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not load config: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "places" {
		if err := runPlaces(os.Args[2:], cfg.Tracks, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		return
	}

	closeLog, err := logger.Init(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not initialise logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		logger.Log.Error().Err(err).Msg("rydm exited with an error")
		fmt.Fprintf(os.Stderr, "Oh no, something went wrong: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg domain.Config) error {
	store, err := storage.NewBboltStore(dbPath())
	if err != nil {
		return err
	}
	defer store.Close()

	loop := clock.NewLoop(loopBuffer)

	mainPlayer := player.NewMpvPlayer(cfg.Playback.MainSocket, cfg.Playback)
	previewCfg := cfg.Playback
	previewCfg.Loop = false
	media := player.NewMpvMedia(player.NewMpvPlayer(cfg.Playback.PreviewSocket, previewCfg), loop)
	defer media.Shutdown()

	host := playback.NewHost(mainPlayer, store, cfg.Tracks)
	defer host.Close()

	arb := preview.NewArbiter(loop, media, host, preview.Options{
		Window:        cfg.Preview.Window,
		HoldThreshold: cfg.Preview.HoldThreshold,
		StartFraction: cfg.Preview.StartFraction,
		Smoothing:     cfg.Preview.Smoothing,
	})
	host.SetArbiter(arb)

	bus := mapsync.NewBus(mapsync.WithView(geo.Coord{Lng: cfg.Map.CenterLng, Lat: cfg.Map.CenterLat}, cfg.Map.Zoom))

	model := ui.InitialModel(ui.Deps{
		Config:  cfg,
		Loop:    loop,
		Bus:     bus,
		Arbiter: arb,
		Host:    host,
		Catalog: catalog.NewITunesClient(cfg.Catalog, nil),
		Storage: store,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	arb.Stop()
	loop.Close()
	return err
}

func dbPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "rydm.db")
	}
	rydmDir := filepath.Join(dir, "rydm")
	if err := os.MkdirAll(rydmDir, 0755); err != nil {
		return filepath.Join(os.TempDir(), "rydm.db")
	}
	return filepath.Join(rydmDir, "rydm.db")
}
