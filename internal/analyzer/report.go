package analyzer

import (
	"context"
	"time"

	"github.com/harrison/tracematrix/internal/correlate"
	"github.com/harrison/tracematrix/internal/filelock"
	"github.com/harrison/tracematrix/internal/models"
)

// Report is the JSON document written after a successful run.
type Report struct {
	GeneratedAt     time.Time           `json:"generated_at"`
	Catalog         string              `json:"catalog"`
	Summary         correlate.Summary   `json:"summary"`
	CoveragePercent float64             `json:"coverage_percent"`
	Requirements    []ReportRequirement `json:"requirements"`
	Unjustified     []string            `json:"unjustified"`
	Anomalies       []models.Anomaly    `json:"anomalies"`
	FileErrors      []ReportFileError   `json:"file_errors"`
	Files           map[string]int      `json:"files"`
}

// ReportRequirement is one row of the matrix.
type ReportRequirement struct {
	ID            string                `json:"id"`
	Description   string                `json:"description,omitempty"`
	Status        models.CoverageStatus `json:"status"`
	Justification string                `json:"justification,omitempty"`
	Tests         []ReportTest          `json:"tests"`
}

// ReportTest identifies a covering test.
type ReportTest struct {
	ID       string            `json:"id"`
	Kind     models.SourceKind `json:"kind"`
	Scope    string            `json:"scope"`
	File     string            `json:"file"`
	Line     int               `json:"line,omitempty"`
	Expected string            `json:"expected,omitempty"`
}

// ReportFileError is a file skipped during extraction.
type ReportFileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// NewReport flattens result and stats into a Report.
func NewReport(result *correlate.Result, stats Stats, catalog string, generatedAt time.Time) *Report {
	r := &Report{
		GeneratedAt:     generatedAt.UTC(),
		Catalog:         catalog,
		Summary:         result.Summary(),
		CoveragePercent: result.CoveragePercent(),
		Requirements:    make([]ReportRequirement, 0, len(result.Requirements)),
		Unjustified:     make([]string, 0, len(result.Unjustified)),
		Anomalies:       result.Anomalies,
		FileErrors:      make([]ReportFileError, 0, len(stats.FileErrors)),
		Files:           make(map[string]int, len(stats.Files)),
	}

	for _, rc := range result.Requirements {
		row := ReportRequirement{
			ID:          rc.Requirement.ID,
			Description: rc.Requirement.Description,
			Status:      rc.Status,
			Tests:       make([]ReportTest, 0, len(rc.Tests)),
		}
		if rc.Justification != nil {
			row.Justification = rc.Justification.Text
		}
		for _, tc := range rc.Tests {
			loc := tc.Location()
			row.Tests = append(row.Tests, ReportTest{
				ID:       tc.TestID(),
				Kind:     tc.Kind(),
				Scope:    tc.Scope(),
				File:     loc.File,
				Line:     loc.Line,
				Expected: tc.ExpectedResult(),
			})
		}
		r.Requirements = append(r.Requirements, row)
	}
	for _, j := range result.Unjustified {
		r.Unjustified = append(r.Unjustified, j.Requirement.ID)
	}
	for _, fe := range stats.FileErrors {
		r.FileErrors = append(r.FileErrors, ReportFileError{Path: fe.Path, Error: fe.Err.Error()})
	}
	for kind, n := range stats.Files {
		r.Files[string(kind)] = n
	}
	return r
}

// WriteReport writes r to path as indented JSON under a file lock.
func WriteReport(ctx context.Context, path string, r *Report) error {
	return filelock.WriteJSON(ctx, path, r)
}
