package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerFormatsAttrs(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)
	logger := slog.New(newConsoleHandler(&buf, levelVar, false))

	logger.Info("backup started", slog.String("archive", "catalog.zip"), slog.Int("parts", 4))

	line := buf.String()
	if !strings.Contains(line, "INFO backup started") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "archive=catalog.zip") || !strings.Contains(line, "parts=4") {
		t.Fatalf("missing attrs in line: %q", line)
	}
}

func TestConsoleHandlerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, levelVar, false))

	logger.Info("suppressed")
	logger.Warn("surfaced")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Fatalf("info line should be suppressed: %q", out)
	}
	if !strings.Contains(out, "surfaced") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestConsoleHandlerWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar, false)).
		With(slog.String("component", "backup")).
		WithGroup("archive")

	logger.Info("entry added", slog.String("name", "photo.jpg"))

	line := buf.String()
	if !strings.Contains(line, "component=backup") {
		t.Fatalf("missing inherited attr: %q", line)
	}
	if !strings.Contains(line, "archive.name=photo.jpg") {
		t.Fatalf("missing grouped attr: %q", line)
	}
}

func TestJSONHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, levelVar))

	logger.Error("restore failed", slog.String("reason", "missing part"))

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode JSON log line: %v", err)
	}
	if decoded["level"] != "error" {
		t.Fatalf("unexpected level: %v", decoded["level"])
	}
	if decoded["msg"] != "restore failed" {
		t.Fatalf("unexpected msg: %v", decoded["msg"])
	}
	if decoded["reason"] != "missing part" {
		t.Fatalf("unexpected reason: %v", decoded["reason"])
	}
	if _, ok := decoded["ts"]; !ok {
		t.Fatal("expected ts field")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if got := parseLevel("verbose"); got != slog.LevelInfo {
		t.Fatalf("unexpected level: %v", got)
	}
	if got := parseLevel("debug"); got != slog.LevelDebug {
		t.Fatalf("unexpected level: %v", got)
	}
}
