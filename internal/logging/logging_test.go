package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDefaultLoggerLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWriterLogger(&out, &errOut)

	l.Debug("hidden")
	l.Info("shown", Fields{"spectrum": "a.xy"})
	l.Warn("careful")
	l.Error(errors.New("boom"), "failed")

	if strings.Contains(out.String(), "hidden") {
		t.Errorf("Expected debug message to be filtered, got: %s", out.String())
	}
	if !strings.Contains(out.String(), "[INFO] shown spectrum=a.xy") {
		t.Errorf("Expected info message with fields, got: %s", out.String())
	}
	if !strings.Contains(errOut.String(), "[WARN] careful") {
		t.Errorf("Expected warning on stderr, got: %s", errOut.String())
	}
	if !strings.Contains(errOut.String(), "[ERROR] failed: boom") {
		t.Errorf("Expected error on stderr, got: %s", errOut.String())
	}

	l.SetLevel(DebugLevel)
	l.Debug("now visible")
	if !strings.Contains(out.String(), "now visible") {
		t.Errorf("Expected debug message after SetLevel, got: %s", out.String())
	}
}

func TestWithFieldsSortedAndShared(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWriterLogger(&out, &errOut)
	child := l.WithFields(Fields{"z": 1, "a": 2})
	l.SetLevel(WarnLevel)
	child.Info("dropped")
	child.Warn("kept", Fields{"m": 3})

	if out.Len() != 0 {
		t.Errorf("Expected level change to apply to child logger, got: %s", out.String())
	}
	if !strings.Contains(errOut.String(), "kept a=2 m=3 z=1") {
		t.Errorf("Expected sorted fields, got: %s", errOut.String())
	}
}

func TestMemoryLogger(t *testing.T) {
	m := NewMemoryLogger()
	child := m.WithFields(Fields{"analyte": "H4N4"})
	child.Warn("out of range")
	m.Info("done")
	exited := 0
	m.exit = func(code int) { exited = code }
	m.Fatal(errors.New("bad"), "fatal")

	if len(m.Entries()) != 3 {
		t.Fatalf("Expected 3 entries, got: %d", len(m.Entries()))
	}
	if m.Count(WarnLevel) != 1 {
		t.Errorf("Expected 1 warning, got: %d", m.Count(WarnLevel))
	}
	if m.Entries()[0].Fields["analyte"] != "H4N4" {
		t.Errorf("Expected analyte field, got: %v", m.Entries()[0].Fields)
	}
	if exited != 1 {
		t.Errorf("Expected exit code 1, got: %d", exited)
	}
}

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Level
		err  bool
	}{
		{"debug", DebugLevel, false},
		{"", InfoLevel, false},
		{"Warning", WarnLevel, false},
		{"nope", InfoLevel, true},
	} {
		got, err := ParseLevel(tc.in)
		if (err != nil) != tc.err {
			t.Errorf("ParseLevel(%q): unexpected error state %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q): expected %v, got: %v", tc.in, tc.want, got)
		}
	}
}
