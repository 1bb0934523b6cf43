package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid json log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter("info", "json", &buf)

	log.Info("page converted", "page", 3, "file", "a.pdf")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(lines))
	}
	if lines[0]["message"] != "page converted" {
		t.Fatalf("unexpected message: %v", lines[0]["message"])
	}
	if lines[0]["page"] != float64(3) {
		t.Fatalf("expected page=3, got %v", lines[0]["page"])
	}
	if lines[0]["file"] != "a.pdf" {
		t.Fatalf("expected file=a.pdf, got %v", lines[0]["file"])
	}
	if lines[0]["level"] != "info" {
		t.Fatalf("expected level info, got %v", lines[0]["level"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter("warn", "json", &buf)

	log.Debug("hidden")
	log.Info("hidden too")
	log.Warn("shown")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected only the warn line, got %d lines", len(lines))
	}
	if lines[0]["message"] != "shown" {
		t.Fatalf("unexpected message: %v", lines[0]["message"])
	}
}

func TestLogger_ErrorIncludesCause(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter("debug", "json", &buf)

	log.Error("save failed", errors.New("disk full"), "path", "/tmp/x.docx")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(lines))
	}
	if lines[0]["error"] != "disk full" {
		t.Fatalf("expected error field, got %v", lines[0]["error"])
	}
	if lines[0]["path"] != "/tmp/x.docx" {
		t.Fatalf("expected path field, got %v", lines[0]["path"])
	}
}

func TestLogger_OddFieldCount(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter("info", "json", &buf)

	log.Info("dangling", "key")

	lines := decodeLines(t, &buf)
	if lines[0]["key"] != "(missing)" {
		t.Fatalf("expected placeholder for dangling key, got %v", lines[0]["key"])
	}
}

func TestParseLogLevel_DefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter("nonsense", "json", &buf)

	log.Debug("hidden")
	log.Info("shown")

	if got := len(decodeLines(t, &buf)); got != 1 {
		t.Fatalf("expected 1 line at default info level, got %d", got)
	}
}
