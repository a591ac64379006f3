package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Log is discarded until Init is called so packages stay quiet under test.
var Log = zerolog.Nop()

func Init(level string) (func() error, error) {
	logPath := "/tmp/rydm.log"
	configDir, err := os.UserConfigDir()
	if err == nil {
		rydmDir := filepath.Join(configDir, "rydm")
		if err := os.MkdirAll(rydmDir, 0755); err == nil {
			logPath = filepath.Join(rydmDir, "rydm.log")
		}
	}

	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	Log = zerolog.New(file).Level(lvl).With().Timestamp().Caller().Logger()
	Log.Info().Str("path", logPath).Msg("Logger initialized")
	return file.Close, nil
}
