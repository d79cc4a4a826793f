package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSize    = 50 // megabytes
	defaultMaxBackups = 3
)

// New builds the application logger. Console output always goes to stdout, the log file
// is optional and rotated by size.
func New(cfg domain.LogConfig, debug bool) zerolog.Logger {
	return NewWithWriter(os.Stdout, cfg, debug)
}

func NewWithWriter(out io.Writer, cfg domain.LogConfig, debug bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		},
	}

	if cfg.Path != "" {
		writers = append(writers, fileWriter(cfg))
	}

	level := ParseLevel(cfg.Level)
	if debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func fileWriter(cfg domain.LogConfig) io.Writer {
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	maxBackups := cfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = defaultMaxBackups
	}

	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Compress:   true,
	}
}

// ParseLevel maps a config level to zerolog, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "none", "disabled":
		return zerolog.Disabled
	}
	return zerolog.InfoLevel
}
