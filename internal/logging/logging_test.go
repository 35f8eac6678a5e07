package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"arsenal-loader/internal/config"
)

func TestLeveledFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLeveled(log.New(&buf, "", 0))

	l.Info("category registered", "category", "Weapons")
	l.Warn("patch step skipped", "step", "builtin-plates")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "[INFO] category registered category Weapons" {
		t.Errorf("Unexpected info line: %q", lines[0])
	}
	if lines[1] != "[WARN] patch step skipped step builtin-plates" {
		t.Errorf("Unexpected warn line: %q", lines[1])
	}
}

func TestLeveledDebugNeedsVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := NewLeveled(log.New(&buf, "", 0))

	l.Debug("quiet")
	if buf.Len() != 0 {
		t.Errorf("Expected debug to be dropped, got %q", buf.String())
	}

	l.Verbose = true
	l.Debug("loud", "k", 1)
	if buf.String() != "[DEBUG] loud k 1\n" {
		t.Errorf("Unexpected debug line: %q", buf.String())
	}
}

func TestNewLeveledNilFallsBack(t *testing.T) {
	if NewLeveled(nil).Logger != log.Default() {
		t.Error("Expected nil logger to fall back to log.Default()")
	}
}

func TestNewWithConfigWritesFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Dir = t.TempDir()

	logger := NewWithConfig(cfg)
	logger.Println("hello")

	data, err := os.ReadFile(filepath.Join(cfg.Logging.Dir, logFile))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("Expected log file to contain message, got %q", string(data))
	}
}

func TestRotateLogsIfNeeded(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, logFile)
	if err := os.WriteFile(logPath, []byte("old"), 0o644); err != nil {
		t.Fatalf("Failed to write log: %v", err)
	}
	old := time.Now().AddDate(0, 0, -10)
	if err := os.Chtimes(logPath, old, old); err != nil {
		t.Fatalf("Failed to age log: %v", err)
	}

	rotateLogsIfNeeded(logPath, 5, time.Now())

	if _, err := os.Stat(logPath); !os.IsNotExist(err) {
		t.Errorf("Expected active log to be rotated away, stat err=%v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		// Rotated file is itself older than the window and gets cleaned up.
		t.Errorf("Expected rotated file to be removed, found %d entries", len(entries))
	}
}

func TestRotateLogsKeepsFreshFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, logFile)
	if err := os.WriteFile(logPath, []byte("fresh"), 0o644); err != nil {
		t.Fatalf("Failed to write log: %v", err)
	}

	rotateLogsIfNeeded(logPath, 5, time.Now())

	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("Expected fresh log to stay in place: %v", err)
	}
}
