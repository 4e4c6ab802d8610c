package logger

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harrison/tracematrix/internal/correlate"
)

// TestNewConsoleLogger verifies the constructor creates a ConsoleLogger with the provided writer.
func TestNewConsoleLogger(t *testing.T) {
	t.Run("with valid writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, "info")

		if logger.writer != buf {
			t.Error("writer not set correctly")
		}
		if logger.logLevel != "info" {
			t.Errorf("expected log level %q, got %q", "info", logger.logLevel)
		}
		if logger.colorOutput {
			t.Error("color must be disabled for non-terminal writers")
		}
	})

	t.Run("with nil writer", func(t *testing.T) {
		logger := NewConsoleLogger(nil, "info")
		logger.Infof("dropped")
		logger.LogSummary(correlate.Summary{})
	})
}

// TestConsoleLineFormat verifies the [HH:MM:SS] [LEVEL] prefix
func TestConsoleLineFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "trace")

	logger.Warnf("file %s skipped: %v", "a.feature", fmt.Errorf("boom"))

	pattern := regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[WARN\] file a.feature skipped: boom\n$`)
	assert.Regexp(t, pattern, buf.String())
}

// TestConsoleLogSummary verifies the summary block contents
func TestConsoleLogSummary(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	logger.LogSummary(correlate.Summary{
		Requirements: 4,
		Covered:      2,
		Justified:    1,
		Uncovered:    1,
		Tests:        5,
		Anomalies:    3,
	})

	out := buf.String()
	assert.Contains(t, out, "=== Coverage Summary ===")
	assert.Contains(t, out, "Requirements: 4")
	assert.Contains(t, out, "Covered:      2")
	assert.Contains(t, out, "Uncovered:    1")
	assert.Contains(t, out, "Coverage:     50.0%")
	assert.Equal(t, 8, strings.Count(out, "\n"))
}

// TestConsoleLogSummaryFiltered verifies the summary is an INFO message
func TestConsoleLogSummaryFiltered(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "warn")
	logger.LogSummary(correlate.Summary{Requirements: 1})
	assert.Empty(t, buf.String())
}

// TestConsoleLoggerConcurrentWrites verifies lines are never interleaved
func TestConsoleLoggerConcurrentWrites(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				logger.Infof("worker %d line %d", n, j)
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 200)
	for _, line := range lines {
		assert.Contains(t, line, "[INFO] worker ")
	}
}

// TestMultiLogger verifies fan-out and nil skipping
func TestMultiLogger(t *testing.T) {
	a := &bytes.Buffer{}
	b := &bytes.Buffer{}
	multi := NewMultiLogger(NewConsoleLogger(a, "debug"), nil, NewConsoleLogger(b, "warn"))

	multi.Debugf("debug only in a")
	multi.Errorf("error in both")
	multi.LogSummary(correlate.Summary{Requirements: 2, Covered: 2})

	assert.Contains(t, a.String(), "debug only in a")
	assert.NotContains(t, b.String(), "debug only in a")
	assert.Contains(t, a.String(), "error in both")
	assert.Contains(t, b.String(), "error in both")
	assert.Contains(t, a.String(), "Coverage:     100.0%")
	assert.NotContains(t, b.String(), "Coverage Summary")
}

// TestNoOpLogger verifies the no-op logger satisfies Logger
func TestNoOpLogger(t *testing.T) {
	var l Logger = NewNoOpLogger()
	l.Tracef("x")
	l.Errorf("y")
	l.LogSummary(correlate.Summary{})
}
