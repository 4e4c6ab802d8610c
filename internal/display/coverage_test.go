package display

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/tracematrix/internal/correlate"
	"github.com/harrison/tracematrix/internal/models"
)

func sampleResult() *correlate.Result {
	reqs := []models.Requirement{
		{ID: "R1", Description: "sign in"},
		{ID: "R2", Description: "sign out"},
		{ID: "R3", Description: "audit"},
	}
	var cases []models.TestCase
	for _, id := range []string{"TC-1", "TC-2", "TC-3", "TC-4", "TC-5"} {
		cases = append(cases, &models.JavaTestCase{TestCaseBase: models.TestCaseBase{
			SourceKind: models.SourceJava, ID: id, Covers: []string{"R1"}, File: "LoginTest.java",
		}})
	}
	cases = append(cases, &models.JavaTestCase{TestCaseBase: models.TestCaseBase{
		SourceKind: models.SourceJava, ID: "TC-9", Covers: []string{"R404"}, File: "LoginTest.java",
	}})
	lookup := correlate.MapLookup{"R2": {Text: "checked manually"}}
	return correlate.Correlate(reqs, cases, lookup)
}

func TestRenderCoverage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderCoverage(&buf, sampleResult(), Options{}))
	out := buf.String()

	assert.NotContains(t, out, "\x1b[", "no color when disabled")
	for _, want := range []string{
		"REQUIREMENT", "STATUS", "TESTS",
		"R1", "COVERED", "TC-1, TC-2, TC-3, +2 more",
		"R2", "JUSTIFIED", "justified: checked manually",
		"R3", "UNCOVERED",
		"Coverage: 33.3% (1/3 requirements covered, 1 justified, 1 uncovered; 6 tests, 1 anomalies)",
		"Unjustified requirements (1):",
		"  - R3: audit",
		"Tests reference unknown requirements (1)",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderCoverageOptions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderCoverage(&buf, sampleResult(), Options{MaxTests: -1, HideAnomalies: true}))
	out := buf.String()

	assert.Contains(t, out, "TC-1, TC-2, TC-3, TC-4, TC-5")
	assert.NotContains(t, out, "Warning:")
}

func TestRenderCoverageNil(t *testing.T) {
	assert.Error(t, RenderCoverage(&bytes.Buffer{}, nil, Options{}))
}

func TestCoverageTableEmpty(t *testing.T) {
	result := correlate.Correlate(nil, nil, nil)
	out := CoverageTable(result, Options{})
	assert.Contains(t, out, "REQUIREMENT")
	assert.Equal(t, "Coverage: 0.0% (0/0 requirements covered, 0 justified, 0 uncovered; 0 tests, 0 anomalies)",
		SummaryLine(result.Summary()))
}

func TestTestList(t *testing.T) {
	tc := func(id string) models.TestCase {
		return &models.GoTestCase{TestCaseBase: models.TestCaseBase{ID: id}}
	}
	assert.Equal(t, "-", testList(nil, 3))
	assert.Equal(t, "A, B", testList([]models.TestCase{tc("A"), tc("B")}, 3))
	assert.Equal(t, "A, +1 more", testList([]models.TestCase{tc("A"), tc("B")}, 1))
	assert.Equal(t, "A, B", testList([]models.TestCase{tc("A"), tc("B")}, -1))
}

func TestColorEnabled(t *testing.T) {
	assert.False(t, ColorEnabled(&bytes.Buffer{}), "buffers are never terminals")

	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, ColorEnabled(f), "regular files are not terminals")

	t.Setenv("NO_COLOR", "1")
	assert.False(t, ColorEnabled(os.Stdout))
}

func TestRenderCoverageColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderCoverage(&buf, sampleResult(), Options{Color: true}))
	// Anomaly warnings carry their own ANSI codes.
	assert.True(t, strings.Contains(buf.String(), ansiYellow))
}

func TestCoverageTableTruncatesDetail(t *testing.T) {
	long := strings.Repeat("x", 80)
	result := correlate.Correlate([]models.Requirement{{ID: "R1", Description: long}}, nil, nil)

	out := CoverageTable(result, Options{})
	assert.NotContains(t, out, long)
	assert.Contains(t, out, strings.Repeat("x", DefaultMaxDetailWidth-1)+"…")

	out = CoverageTable(result, Options{MaxDetailWidth: -1})
	assert.Contains(t, out, long)
}
