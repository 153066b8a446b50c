// Package slogx builds the process-wide structured logger and threads
// request-scoped loggers through context.
package slogx

import (
	"log/slog"
	"os"
	"strings"
)

// Options tune handler construction. Level and Format take the raw
// LOG_LEVEL / LOG_FORMAT values; unrecognised inputs fall back to info
// and JSON. Env switches source annotations on in dev.
type Options struct {
	Env    string
	Level  string
	Format string
}

// New builds the service logger and installs it as the slog default so
// code logging through slog.Default shares the same handler.
func New(service, version string, opts Options) *slog.Logger {
	logger := slog.New(newHandler(opts)).With(
		slog.String("service", service),
		slog.String("version", version),
		slog.String("env", opts.Env),
	)
	slog.SetDefault(logger)
	return logger
}

func newHandler(opts Options) slog.Handler {
	ho := &slog.HandlerOptions{
		Level:     levelFor(opts.Level),
		AddSource: opts.Env == "dev",
	}
	if strings.EqualFold(opts.Format, "text") {
		return slog.NewTextHandler(os.Stdout, ho)
	}
	return slog.NewJSONHandler(os.Stdout, ho)
}

func levelFor(name string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
