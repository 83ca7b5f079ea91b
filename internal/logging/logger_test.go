package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	WithComponent(logger, "batch").Info("worker started", slog.Int("slot", 3))

	line := buf.String()
	if !strings.Contains(line, "[batch]") {
		t.Fatalf("expected component tag, got %q", line)
	}
	if !strings.Contains(line, "worker started") {
		t.Fatalf("expected message, got %q", line)
	}
	if !strings.Contains(line, "slot=3") {
		t.Fatalf("expected attr, got %q", line)
	}
}

func TestNewConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("visible")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be suppressed: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("persisted", slog.String("bvid", "BV1xx"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "persisted" {
		t.Fatalf("unexpected msg field: %v", record["msg"])
	}
	if record["bvid"] != "BV1xx" {
		t.Fatalf("unexpected bvid field: %v", record["bvid"])
	}
	if record["level"] != "info" {
		t.Fatalf("unexpected level field: %v", record["level"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithComponentNilLogger(t *testing.T) {
	logger := WithComponent(nil, "x")
	if logger == nil {
		t.Fatal("expected non-nil discard logger")
	}
	logger.Info("must not panic")
}
