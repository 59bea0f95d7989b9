package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// capture redirects output to a buffer at the given level and restores the
// defaults when the test ends.
func capture(t *testing.T, l Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(l)
	now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
		now = time.Now
	})
	return &buf
}

func TestLineFormat(t *testing.T) {
	buf := capture(t, LevelInfo)
	Info("store opened", "path", "/tmp/w.db", "events", 3)
	want := "2025-03-10T09:00:00Z [INFO] store opened path=/tmp/w.db events=3\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestErrorPrependsErr(t *testing.T) {
	buf := capture(t, LevelInfo)
	Error("commit failed", errors.New("disk full"), "id", "a")
	if !strings.Contains(buf.String(), `[ERROR] commit failed err="disk full" id=a`) {
		t.Errorf("got %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		min  Level
		want []string
	}{
		{LevelDebug, []string{"DEBUG", "INFO", "ERROR"}},
		{LevelInfo, []string{"INFO", "ERROR"}},
		{LevelError, []string{"ERROR"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.min), func(t *testing.T) {
			buf := capture(t, tt.min)
			Debug("d")
			Info("i")
			Error("e", nil)
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(lines) != len(tt.want) {
				t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(tt.want), buf.String())
			}
			for i, lvl := range tt.want {
				if !strings.Contains(lines[i], "["+lvl+"]") {
					t.Errorf("line %d = %q, want level %s", i, lines[i], lvl)
				}
			}
		})
	}
}

func TestOddAndNonStringKeys(t *testing.T) {
	buf := capture(t, LevelInfo)
	Info("x", 42, "dropped", "k", "v", "dangling")
	if got := buf.String(); !strings.HasSuffix(got, "[INFO] x k=v\n") {
		t.Errorf("got %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":  LevelDebug,
		" ERROR": LevelError,
		"info":   LevelInfo,
		"bogus":  LevelInfo,
		"":       LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestOpenFile(t *testing.T) {
	capture(t, LevelInfo)
	path := filepath.Join(t.TempDir(), "logs", "wgv.log")
	c, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	Info("hello")
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "[INFO] hello") {
		t.Errorf("log file = %q", data)
	}
}
