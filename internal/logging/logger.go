package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rickgao/coin-crawler/internal/config"
)

// New creates the process logger from cfg. The returned closer releases the
// log file and must be called before exit.
func New(cfg config.LoggingConfig) (*slog.Logger, io.Closer) {
	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}

	var w io.Writer = file
	if cfg.Console {
		w = io.MultiWriter(file, os.Stderr)
	}

	return slog.New(NewHandler(w, ParseLevel(cfg.Level))), file
}

// ParseLevel maps a config level name to a slog.Level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
