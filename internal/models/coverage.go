package models

import "fmt"

// CoverageStatus classifies one requirement after correlation.
type CoverageStatus string

// Coverage status constants
const (
	StatusCovered   CoverageStatus = "covered"   // at least one test references it
	StatusJustified CoverageStatus = "justified" // untested, with a defined justification
	StatusUncovered CoverageStatus = "uncovered" // untested and unjustified
)

// AnomalyKind names a semantic inconsistency found during correlation.
type AnomalyKind string

// Anomaly kinds
const (
	AnomalyOrphanReference      AnomalyKind = "orphan_reference"
	AnomalyDuplicateTestID      AnomalyKind = "duplicate_test_id"
	AnomalyEmptyCoverage        AnomalyKind = "empty_coverage"
	AnomalyJustifiedButCovered  AnomalyKind = "justified_but_covered"
	AnomalyUnknownJustification AnomalyKind = "unknown_justification"
)

// Severity of an anomaly.
type Severity string

// Severity levels
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Anomaly is a finding reported alongside the matrix. Anomalies are data,
// never errors.
type Anomaly struct {
	Kind          AnomalyKind `json:"kind"`
	Severity      Severity    `json:"severity"`
	RequirementID string      `json:"requirement_id,omitempty"`
	TestID        string      `json:"test_id,omitempty"`
	Scope         string      `json:"scope,omitempty"`
	Message       string      `json:"message"`
}

func (a Anomaly) String() string {
	return fmt.Sprintf("[%s] %s: %s", a.Severity, a.Kind, a.Message)
}
