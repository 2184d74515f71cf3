// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Options selects the level and destination of log output.
type Options struct {
	// Debug lowers the level to debug (from config: debug)
	Debug bool
	// File receives the log instead of stderr (from config: log_file)
	File string
}

// Setup installs a text handler as the default logger and returns it along
// with a closer for the log file, if one was opened.
func Setup(opts Options) (*slog.Logger, func() error, error) {
	var w io.Writer = os.Stderr
	closer := func() error { return nil }
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, err
		}
		w, closer = f, f.Close
	}

	logger := New(w, opts.Debug)
	slog.SetDefault(logger)
	return logger, closer, nil
}

// New returns a text logger writing to w.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
