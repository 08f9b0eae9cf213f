// log/log_test.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerLevelsAndCallstack(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithWriter(&buf, "info")

	lg.Debug("hidden")
	lg.Infof("loaded %d tables", 3)
	lg.With(slog.String("source", "db.json")).Warn("fallback")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %d: %q", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["msg"] != "loaded 3 tables" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if _, ok := rec["callstack"]; !ok {
		t.Errorf("no callstack in %v", rec)
	}

	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["source"] != "db.json" || rec["level"] != "WARN" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestDebugf(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "info").Debugf("hidden %d", 1)
	if buf.Len() != 0 {
		t.Errorf("debug record written at info level: %q", buf.String())
	}

	NewWithWriter(&buf, "debug").Debugf("unchanged (%d bytes)", 42)
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["msg"] != "unchanged (42 bytes)" || rec["level"] != "DEBUG" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestNilLogger(t *testing.T) {
	var lg *Logger
	// None of these should panic.
	lg.Debug("x")
	lg.Infof("x %d", 1)
	if lg.With("a", 1) != nil {
		t.Errorf("With on nil logger should be nil")
	}
}
