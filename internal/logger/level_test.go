package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLogLevelFiltering verifies that messages are filtered based on log level
func TestLogLevelFiltering(t *testing.T) {
	levels := []string{"trace", "debug", "info", "warn", "error"}

	for ci, configured := range levels {
		for mi, message := range levels {
			shouldAppear := mi >= ci
			name := configured + " logger, " + message + " message"
			t.Run(name, func(t *testing.T) {
				buf := &bytes.Buffer{}
				logger := NewConsoleLogger(buf, configured)
				logAt(logger, message, message+" msg")

				contains := strings.Contains(buf.String(), message+" msg")
				if shouldAppear && !contains {
					t.Errorf("expected %q message at %q level, output: %q", message, configured, buf.String())
				}
				if !shouldAppear && contains {
					t.Errorf("expected %q message to be filtered at %q level, output: %q", message, configured, buf.String())
				}
			})
		}
	}
}

func logAt(l Logger, level, msg string) {
	switch level {
	case "trace":
		l.Tracef("%s", msg)
	case "debug":
		l.Debugf("%s", msg)
	case "info":
		l.Infof("%s", msg)
	case "warn":
		l.Warnf("%s", msg)
	case "error":
		l.Errorf("%s", msg)
	}
}

// TestNormalizeLogLevel verifies case folding and the info default
func TestNormalizeLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"DEBUG", "debug"},
		{"  warn ", "warn"},
		{"", "info"},
		{"verbose", "info"},
	}
	for _, tt := range tests {
		if got := normalizeLogLevel(tt.in); got != tt.want {
			t.Errorf("normalizeLogLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if IsValidLevel("verbose") {
		t.Error("verbose should not be a valid level")
	}
	if !IsValidLevel("Error") {
		t.Error("Error should be a valid level")
	}
}

// TestFileLoggerRespectsLevel verifies the file logger filters like the console logger
func TestFileLoggerRespectsLevel(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewFileLoggerWithDirAndLevel(dir, "warn")
	if err != nil {
		t.Fatalf("NewFileLoggerWithDirAndLevel() error = %v", err)
	}

	logger.Infof("hidden %d", 1)
	logger.Warnf("shown %d", 2)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "latest.log"))
	if err != nil {
		t.Fatalf("read latest.log: %v", err)
	}
	if strings.Contains(string(content), "hidden 1") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(string(content), "[WARN] shown 2") {
		t.Errorf("expected warn message in run log, got %q", content)
	}
}
