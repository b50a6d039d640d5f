package config

import (
	"io"
	"log/slog"
	"os"
)

// InitLogger installs the default slog logger. Diagnostics go to stderr so
// that command output on stdout stays clean; debug lowers the level and adds
// source locations.
func InitLogger(debug bool) {
	initLogger(os.Stderr, debug)
}

func initLogger(w io.Writer, debug bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelWarn, ReplaceAttr: replaceTimeAttr}
	if debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	var handler slog.Handler
	if os.Getenv("ATTRITION_LOG_FORMAT") == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("logger initialized", "debug", debug)
}

func replaceTimeAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.String("time", a.Value.Time().Local().Format("2006-01-02 15:04:05"))
	}
	return a
}
