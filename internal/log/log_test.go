package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input  string
		expect slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := ParseLevel(tc.input); got != tc.expect {
				t.Errorf("ParseLevel(%q): got %v, want %v", tc.input, got, tc.expect)
			}
		})
	}
}

func TestNew_FiltersByLevel(t *testing.T) {
	t.Setenv("GO_ENV", "")
	var buf bytes.Buffer
	l := New(&buf, "warn")

	l.Info("hidden")
	l.Warn("shown", "state", "pin")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "state=pin") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestNew_JSONInProduction(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	var buf bytes.Buffer
	New(&buf, "info").Info("transition", "to", "lever")

	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"to":"lever"`) {
		t.Errorf("expected JSON record, got %q", buf.String())
	}
}

func TestRotatingDefaults(t *testing.T) {
	l := rotating(Options{File: "/tmp/disktray.log"})
	if l.MaxSize != 50 || l.MaxBackups != 5 || l.MaxAge != 14 {
		t.Errorf("defaults: got size=%d backups=%d age=%d", l.MaxSize, l.MaxBackups, l.MaxAge)
	}
	if !l.Compress {
		t.Error("expected compression")
	}
}
