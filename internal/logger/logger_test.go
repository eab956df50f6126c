package logger

import (
	"log/slog"
	"testing"
)

func TestInit(t *testing.T) {
	log := Init("test-service", slog.LevelInfo)
	if log == nil {
		t.Fatal("expected non-nil logger")
	}
	if slog.Default() != log {
		t.Error("Init must install the logger as process default")
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"Info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, c := range cases {
		if got := ParseLevel(c.in); got != c.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
