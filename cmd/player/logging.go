package main

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogging sends logs to the console and, when file is set, to a rotating
// JSON log file.
func setupLogging(level, file string) (closeFn func() error, err error) {
	closeFn = func() error { return nil }
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	console := zerolog.ConsoleWriter{Out: os.Stderr}
	if file == "" {
		log.Logger = zerolog.New(console).With().Timestamp().Logger()
		return closeFn, nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		log.Logger = zerolog.New(console).With().Timestamp().Logger()
		return closeFn, err
	}
	rotating := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(console, rotating)).With().Timestamp().Logger()
	return rotating.Close, nil
}
