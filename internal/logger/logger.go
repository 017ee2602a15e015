// Package logger configures the logrus logger shared by the CLI and API.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls log level, format and outputs
type Config struct {
	Level  string
	Format string // "text" or "json"
	File   string // optional rotating log file

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Stderr disables console output when false and File is set
	Stderr bool
}

// New builds a logger from the config
func New(cfg Config) (*logrus.Logger, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(defaultString(cfg.Level, "info")))
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	log.SetLevel(level)

	switch strings.ToLower(defaultString(cfg.Format, "text")) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	var writers []io.Writer
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    defaultInt(cfg.MaxSizeMB, 10),
			MaxBackups: defaultInt(cfg.MaxBackups, 3),
			MaxAge:     defaultInt(cfg.MaxAgeDays, 28),
			Compress:   true,
		})
	}
	if cfg.File == "" || cfg.Stderr {
		writers = append(writers, os.Stderr)
	}
	log.SetOutput(io.MultiWriter(writers...))

	return log, nil
}

// Discard returns a logger that drops everything, for tests
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func defaultInt(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
