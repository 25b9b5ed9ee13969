// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects the handler of the default logger.
type Options struct {
	Level   string // debug, info, warn, error (default info)
	Format  string // json or text (default json)
	Service string // added as the "service" attribute when set
}

// FromEnv reads LOG_LEVEL and LOG_FORMAT, falling back to format when
// LOG_FORMAT is unset.
func FromEnv(service, format string) Options {
	opts := Options{
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  os.Getenv("LOG_FORMAT"),
		Service: service,
	}
	if opts.Format == "" {
		opts.Format = format
	}
	return opts
}

// ParseLevel maps a level name to a slog level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// New builds a logger writing to w.
func New(w io.Writer, o Options) *slog.Logger {
	ho := &slog.HandlerOptions{Level: ParseLevel(o.Level)}

	var handler slog.Handler
	if strings.EqualFold(o.Format, "text") {
		handler = slog.NewTextHandler(w, ho)
	} else {
		handler = slog.NewJSONHandler(w, ho)
	}

	logger := slog.New(handler)
	if o.Service != "" {
		logger = logger.With("service", o.Service)
	}
	return logger
}

// Setup installs a stdout logger as the slog default and returns it.
func Setup(o Options) *slog.Logger {
	logger := New(os.Stdout, o)
	slog.SetDefault(logger)
	return logger
}
