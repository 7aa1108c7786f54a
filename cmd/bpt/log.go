package main

import (
	"log/slog"
	"os"

	"github.com/maxtruxa/bpt/internal/xlog"
)

// newLogger builds the process-wide slog.Logger, honoring the
// log-level environment override named in spec §6.
func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("BPT_LOG_LEVEL"))); err != nil {
		level = slog.LevelInfo
	}
	h := xlog.Handler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return slog.New(h)
}
