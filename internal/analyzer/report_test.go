package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/tracematrix/internal/correlate"
	"github.com/harrison/tracematrix/internal/extractor"
	"github.com/harrison/tracematrix/internal/models"
)

func TestNewReport(t *testing.T) {
	reqs := []models.Requirement{{ID: "R1", Description: "one"}, {ID: "R2"}, {ID: "R3"}}
	cases := []models.TestCase{&models.GoTestCase{
		TestCaseBase: models.TestCaseBase{
			SourceKind: models.SourceGo, ID: "TC-1", Expected: "works", Covers: []string{"R1"}, File: "a_test.go", Line: 7,
		},
		Dir: "pkg",
	}}
	result := correlate.Correlate(reqs, cases, correlate.MapLookup{"R2": {Text: "manual"}})
	stats := Stats{
		Files:      map[models.SourceKind]int{models.SourceGo: 1},
		FileErrors: []extractor.FileError{{Path: "bad_test.go", Err: errors.New("line 3: syntax error")}},
	}
	generated := time.Date(2026, 5, 1, 10, 0, 0, 0, time.FixedZone("X", 3600))

	r := NewReport(result, stats, "reqs.yaml", generated)

	assert.Equal(t, generated.UTC(), r.GeneratedAt)
	assert.Equal(t, "reqs.yaml", r.Catalog)
	assert.InDelta(t, 33.3, r.CoveragePercent, 0.1)
	require.Len(t, r.Requirements, 3)
	assert.Equal(t, ReportRequirement{
		ID:          "R1",
		Description: "one",
		Status:      models.StatusCovered,
		Tests: []ReportTest{{
			ID: "TC-1", Kind: models.SourceGo, Scope: "pkg", File: "a_test.go", Line: 7, Expected: "works",
		}},
	}, r.Requirements[0])
	assert.Equal(t, "manual", r.Requirements[1].Justification)
	assert.Equal(t, []string{"R3"}, r.Unjustified)
	assert.Equal(t, []ReportFileError{{Path: "bad_test.go", Error: "line 3: syntax error"}}, r.FileErrors)
	assert.Equal(t, map[string]int{"go": 1}, r.Files)
}

func TestWriteReport(t *testing.T) {
	result := correlate.Correlate([]models.Requirement{{ID: "R1"}}, nil, nil)
	r := NewReport(result, Stats{}, "reqs.yaml", time.Now())
	path := filepath.Join(t.TempDir(), "out", "report.json")

	require.NoError(t, WriteReport(context.Background(), path, r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []interface{}{"R1"}, decoded["unjustified"])
	assert.Equal(t, []interface{}{}, decoded["file_errors"])
}
