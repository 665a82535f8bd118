package app

import (
	"io"
	"log/slog"
	"strings"
)

// buildLogger returns a logger writing to w. Unknown levels fall back to
// info; format "json" selects the JSON handler, anything else text.
func buildLogger(level, format string, w io.Writer) *slog.Logger {
	lvl := slog.LevelInfo
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
