package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestStdLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerTo(&buf, "test", LevelWarning)

	l.Debugf("debug message")
	l.Infof("info message")
	l.Warningf("warn message")
	l.Errorf("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below the configured level were emitted:\n%s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("expected warn and error messages, got:\n%s", out)
	}
}

func TestStdLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerTo(&buf, "lockmgr", LevelDebug)

	l.Infof("acquired %q", "invoice-export")

	out := buf.String()
	if !strings.Contains(out, "INFO ") {
		t.Errorf("missing level column: %q", out)
	}
	if !strings.Contains(out, "| lockmgr ") {
		t.Errorf("missing component column: %q", out)
	}
	if !strings.Contains(out, `acquired "invoice-export"`) {
		t.Errorf("missing message: %q", out)
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerTo(&buf, "test", LevelError)

	l.Infof("dropped")
	l.SetLevel(LevelDebug)
	l.Infof("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("message emitted before SetLevel: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("message missing after SetLevel: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarning,
		"warning": LevelWarning,
		"error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNoopLoggerDoesNothing(t *testing.T) {
	l := NewNoopLogger()
	l.Debugf("a")
	l.Infof("b")
	l.Warningf("c")
	l.Errorf("d")
	l.SetLevel(LevelDebug)
}
