package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func restoreDefault(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug message logged at info level: %s", buf.String())
	}

	New(&buf, true).Debug("shown", "symbol", "А")
	if !strings.Contains(buf.String(), "msg=shown") || !strings.Contains(buf.String(), "symbol=А") {
		t.Errorf("debug logger output = %q", buf.String())
	}
}

func TestSetup_File(t *testing.T) {
	restoreDefault(t)
	path := filepath.Join(t.TempDir(), "logs", "cwtrainer.log")

	_, closeLog, err := Setup(Options{File: path, Debug: true})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	slog.Debug("run finished", "score", 5)
	if err := closeLog(); err != nil {
		t.Fatalf("close error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "run finished") || !strings.Contains(string(data), "score=5") {
		t.Errorf("log file = %q", data)
	}
}

func TestSetup_Stderr(t *testing.T) {
	restoreDefault(t)
	logger, closeLog, err := Setup(Options{})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer func() { _ = closeLog() }()
	if logger != slog.Default() {
		t.Error("Setup() did not install the default logger")
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("logger should not enable debug without Debug")
	}
}

func TestSetup_BadFile(t *testing.T) {
	restoreDefault(t)
	dir := t.TempDir()
	if _, _, err := Setup(Options{File: dir}); err == nil {
		t.Error("Setup() with a directory as the log file should fail")
	}
}
