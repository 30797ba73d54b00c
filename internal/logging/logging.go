// Package logging builds the service's slog logger from config.LogConfig.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/light-bringer/dirtify-service/internal/config"
)

// EnvLogLevel overrides log.level when set to a valid level.
const EnvLogLevel = "DIRTIFY_LOG_LEVEL"

// Logging owns the logger, its adjustable level and the output it writes to.
type Logging struct {
	Logger *slog.Logger

	level  *slog.LevelVar
	output io.Writer
}

// New builds a logger. An empty cfg.Filename writes to stderr.
func New(cfg config.LogConfig, stderr io.Writer) *Logging {
	level := new(slog.LevelVar)
	lvl, _ := config.ParseLevel(cfg.Level)
	if env, ok := config.ParseLevel(os.Getenv(EnvLogLevel)); ok {
		lvl = env
	}
	level.Set(lvl)

	var output io.Writer = stderr
	if strings.TrimSpace(cfg.Filename) != "" {
		output = &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	}

	opts := &slog.HandlerOptions{
		AddSource: lvl <= slog.LevelDebug,
		Level:     level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return &Logging{
		Logger: slog.New(handler),
		level:  level,
		output: output,
	}
}

// SetLevel changes the level at runtime. Unknown values are ignored and
// reported false.
func (l *Logging) SetLevel(value string) bool {
	lvl, ok := config.ParseLevel(value)
	if !ok {
		return false
	}
	if l.level.Level() != lvl {
		l.level.Set(lvl)
		l.Logger.Info("log level changed", "level", lvl.String())
	}
	return true
}

// Level returns the current level.
func (l *Logging) Level() slog.Level {
	return l.level.Level()
}

// Close closes a rotated log file. Stream outputs are left open.
func (l *Logging) Close() error {
	if c, ok := l.output.(*lumberjack.Logger); ok {
		return c.Close()
	}
	return nil
}
