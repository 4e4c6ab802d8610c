package display

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/tracematrix/internal/correlate"
	"github.com/harrison/tracematrix/internal/history"
)

func TestRenderRuns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderRuns(&buf, nil, false))
	assert.Equal(t, "No runs recorded.\n", buf.String())

	buf.Reset()
	runs := []*history.Run{{
		ID:        "0123456789abcdef",
		StartedAt: time.Date(2026, 2, 3, 4, 5, 6, 0, time.Local),
		State:     "ENDED_SUCCESS",
		Summary:   correlate.Summary{Requirements: 4, Covered: 3, Uncovered: 1, Anomalies: 2},
	}}
	require.NoError(t, RenderRuns(&buf, runs, false))
	out := buf.String()
	for _, want := range []string{"RUN", "COVERAGE", "01234567", "2026-02-03 04:05:06", "ENDED_SUCCESS", "75.0%"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "89abcdef")
}

func TestRenderRunStatuses(t *testing.T) {
	var buf bytes.Buffer
	run := &history.Run{
		ID:    "run-1",
		State: "ENDED_SUCCESS",
		Statuses: []history.RequirementStatus{
			{RequirementID: "R1", Status: "covered", TestCount: 2},
			{RequirementID: "R2", Status: "justified", Justification: "manual"},
		},
		Summary: correlate.Summary{Requirements: 2, Covered: 1, Justified: 1},
	}
	require.NoError(t, RenderRunStatuses(&buf, run, false))
	out := buf.String()
	assert.Contains(t, out, "Run run-1 (ENDED_SUCCESS")
	assert.Contains(t, out, "R1           covered    2 test(s)")
	assert.Contains(t, out, "manual")
	assert.Contains(t, out, "Coverage: 50.0%")
}
