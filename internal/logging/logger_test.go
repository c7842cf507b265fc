package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewTextStandardizesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, "text")

	logger.Info("exchange failed", "error", errors.New("boom"))

	out := buf.String()
	if !strings.Contains(out, "err=boom") {
		t.Fatalf("expected err=boom in output, got %q", out)
	}
	if strings.Contains(out, "error=") {
		t.Fatalf("expected error key to be renamed, got %q", out)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, "JSON")

	logger.Info("run started", "run_id", "01ABC")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "run started" {
		t.Fatalf("expected msg 'run started', got %v", entry["msg"])
	}
	if entry["run_id"] != "01ABC" {
		t.Fatalf("expected run_id 01ABC, got %v", entry["run_id"])
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Level(false), "text").Debug("action started")
	if buf.Len() != 0 {
		t.Fatalf("expected debug to be filtered, got %q", buf.String())
	}

	New(&buf, Level(true), "text").Debug("action started")
	if !strings.Contains(buf.String(), "action started") {
		t.Fatalf("expected debug output when verbose, got %q", buf.String())
	}
}

func TestNewNop(t *testing.T) {
	NewNop().Error("ignored")
}
