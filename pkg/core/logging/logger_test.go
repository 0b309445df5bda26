package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	zerror "github.com/msto63/zuse/foundation/core/error"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{Level(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func newBufferLogger(t *testing.T, buf *bytes.Buffer, format string) *Logger {
	t.Helper()
	base, _, err := NewLogger(LoggerConfig{ServiceName: "test", Level: "debug", Format: format, Output: buf})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	return Wrap(base, "test")
}

func TestLogger_KeyValues(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(t, &buf, "text")

	logger.Info("command registered", "command", "ECHO", "overwrite", false)
	out := buf.String()
	if !strings.Contains(out, "command=ECHO") || !strings.Contains(out, "overwrite=false") {
		t.Errorf("output = %q", out)
	}
}

func TestLogger_OddKeyValues(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(t, &buf, "text")

	logger.Warn("dangling", "key")
	logger.Warn("bad key", 42, "value")
	if strings.Contains(buf.String(), "key=") {
		t.Errorf("incomplete pairs must be dropped: %q", buf.String())
	}
}

func TestLogger_ErrorExpandsCode(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(t, &buf, "json")

	err := zerror.New("no such pipe").WithCode(zerror.CodePipeUnavailable)
	logger.Error("send failed", "error", err, "pipe", "P")
	out := buf.String()
	if !strings.Contains(out, `"error_code":"PIPE_UNAVAILABLE"`) || !strings.Contains(out, `"pipe":"P"`) {
		t.Errorf("output = %q", out)
	}

	buf.Reset()
	logger.Error("plain", "error", errors.New("boom"))
	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Errorf("output = %q", buf.String())
	}
}

func TestLogger_WithLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(t, &buf, "text").WithLevel(LevelError)

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at error level: %q", buf.String())
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(t, &buf, "text").With("thread", "t-1")

	logger.Debug("frame added")
	if !strings.Contains(buf.String(), "thread=t-1") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "zuse.log")
	var buf bytes.Buffer

	logger, closer, err := NewLogger(LoggerConfig{ServiceName: "file", Level: "info", Format: "json", File: path, Output: &buf})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	logger.Info("written twice")
	if err := closer(); err != nil {
		t.Fatalf("close error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "written twice") || !strings.Contains(buf.String(), "written twice") {
		t.Errorf("file = %q, buffer = %q", data, buf.String())
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, _, err := NewLogger(LoggerConfig{Level: "chatty"}); err == nil {
		t.Error("NewLogger() should reject unknown levels")
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard("quiet")
	logger.Error("nothing", "error", errors.New("x"))
	if logger.Name() != "quiet" {
		t.Errorf("Name() = %q", logger.Name())
	}
}
