// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the structured diagnostic logger: log/slog on top
// of zerolog, configured from LOG_LEVEL and LOG_FORMAT. User-facing
// progress lines are not logged; they are written directly by the
// converter and report packages.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog"
	slogzerolog "github.com/samber/slog-zerolog"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds the logger settings read from the environment.
type Config struct {
	Format string `env:"LOG_FORMAT" env-default:"text" env-description:"Log output format (text or json)"`
	Level  string `env:"LOG_LEVEL" env-default:"warn" env-description:"Log level (debug, info, warn, error)"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("reading log config: %w", err)
	}
	return cfg, nil
}

// ParseLevel maps a level name to a slog level. Unknown names select warn.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// New creates a logger writing to w. Every record carries runID under the
// run_id key. The slog default is left alone; callers pass the logger
// explicitly.
func New(cfg Config, w io.Writer, runID string) *slog.Logger {
	var zl zerolog.Logger
	if cfg.Format == FormatJSON {
		zl = zerolog.New(w)
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: w})
	}

	handler := slogzerolog.Option{
		Level:  ParseLevel(cfg.Level),
		Logger: &zl,
	}.NewZerologHandler()

	return slog.New(handler).With("run_id", runID)
}

// NewRunID returns a fresh identifier for one invocation.
func NewRunID() string {
	return uuid.NewString()
}
