// Package correlate joins the requirement catalog with mined test cases
// and justifications into a coverage result.
package correlate

import (
	"fmt"
	"sort"

	"github.com/harrison/tracematrix/internal/models"
)

// JustificationLookup resolves the justification recorded for a requirement id.
type JustificationLookup interface {
	Lookup(id string) (models.Justification, bool)
}

// JustificationEnumerator is implemented by lookups that can list every
// id they hold. Correlate uses it to report justifications for unknown
// requirements.
type JustificationEnumerator interface {
	IDs() []string
}

// MapLookup adapts a map keyed by requirement id.
type MapLookup map[string]models.Justification

// Lookup implements JustificationLookup.
func (m MapLookup) Lookup(id string) (models.Justification, bool) {
	j, ok := m[id]
	return j, ok
}

// IDs implements JustificationEnumerator. Ids are sorted.
func (m MapLookup) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RequirementCoverage is one row of the traceability matrix.
type RequirementCoverage struct {
	Requirement models.Requirement    `json:"requirement"`
	Status      models.CoverageStatus `json:"status"`
	Tests       []models.TestCase     `json:"tests"`
	// Justification is set when Status is justified.
	Justification *models.Justification `json:"justification,omitempty"`
}

// Covered reports whether at least one test references the requirement.
func (rc RequirementCoverage) Covered() bool {
	return len(rc.Tests) > 0
}

// Result is the outcome of one correlation pass. It is not mutated after
// Correlate returns.
type Result struct {
	Requirements []RequirementCoverage  `json:"requirements"`
	Justified    []models.Justification `json:"justified"`
	Unjustified  []models.Justification `json:"unjustified"`
	Anomalies    []models.Anomaly       `json:"anomalies"`
	TestCount    int                    `json:"test_count"`
}

// Summary holds the headline counts of a Result.
type Summary struct {
	Requirements int `json:"requirements"`
	Covered      int `json:"covered"`
	Justified    int `json:"justified"`
	Uncovered    int `json:"uncovered"`
	Tests        int `json:"tests"`
	Anomalies    int `json:"anomalies"`
}

// CoveragePercent is the share of requirements with at least one test.
// It is 0 for an empty catalog.
func (s Summary) CoveragePercent() float64 {
	if s.Requirements == 0 {
		return 0
	}
	return float64(s.Covered) * 100 / float64(s.Requirements)
}

// Summary counts the result.
func (r *Result) Summary() Summary {
	s := Summary{
		Requirements: len(r.Requirements),
		Justified:    len(r.Justified),
		Uncovered:    len(r.Unjustified),
		Tests:        r.TestCount,
		Anomalies:    len(r.Anomalies),
	}
	for _, rc := range r.Requirements {
		if rc.Covered() {
			s.Covered++
		}
	}
	return s
}

// CoveragePercent is shorthand for Summary().CoveragePercent().
func (r *Result) CoveragePercent() float64 {
	return r.Summary().CoveragePercent()
}

// Requirement returns the matrix row for id.
func (r *Result) Requirement(id string) (RequirementCoverage, bool) {
	i := sort.Search(len(r.Requirements), func(i int) bool {
		return r.Requirements[i].Requirement.ID >= id
	})
	if i < len(r.Requirements) && r.Requirements[i].Requirement.ID == id {
		return r.Requirements[i], true
	}
	return RequirementCoverage{}, false
}

// Correlate builds the coverage result. It never fails: inconsistencies
// are reported as anomalies. justifications may be nil.
func Correlate(catalog []models.Requirement, cases []models.TestCase, justifications JustificationLookup) *Result {
	result := &Result{
		Requirements: []RequirementCoverage{},
		Justified:    []models.Justification{},
		Unjustified:  []models.Justification{},
		Anomalies:    []models.Anomaly{},
		TestCount:    len(cases),
	}

	byID := make(map[string]models.Requirement, len(catalog))
	for _, req := range catalog {
		if _, ok := byID[req.ID]; ok {
			continue
		}
		byID[req.ID] = req
	}

	coverage := make(map[string][]models.TestCase)
	for _, tc := range cases {
		covers := tc.CoveredRequirements()
		if len(covers) == 0 {
			result.Anomalies = append(result.Anomalies, models.Anomaly{
				Kind:     models.AnomalyEmptyCoverage,
				Severity: models.SeverityWarning,
				TestID:   tc.TestID(),
				Scope:    tc.Scope(),
				Message:  fmt.Sprintf("test %q (%s) declares no covered requirements", tc.TestID(), locationString(tc)),
			})
			continue
		}
		for _, id := range covers {
			if _, ok := byID[id]; !ok {
				result.Anomalies = append(result.Anomalies, models.Anomaly{
					Kind:          models.AnomalyOrphanReference,
					Severity:      models.SeverityWarning,
					RequirementID: id,
					TestID:        tc.TestID(),
					Scope:         tc.Scope(),
					Message:       fmt.Sprintf("test %q (%s) references unknown requirement %q", tc.TestID(), locationString(tc), id),
				})
				continue
			}
			coverage[id] = append(coverage[id], tc)
		}
	}

	result.Anomalies = append(result.Anomalies, duplicateAnomalies(cases)...)

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		req := byID[id]
		tests := coverage[id]
		sortTests(tests)
		row := RequirementCoverage{Requirement: req, Tests: tests}
		if row.Tests == nil {
			row.Tests = []models.TestCase{}
		}

		j, found := lookup(justifications, id)
		switch {
		case len(tests) > 0:
			row.Status = models.StatusCovered
			if found {
				result.Anomalies = append(result.Anomalies, models.Anomaly{
					Kind:          models.AnomalyJustifiedButCovered,
					Severity:      models.SeverityInfo,
					RequirementID: id,
					Message:       fmt.Sprintf("requirement %q is covered by %d test(s) but also has a justification", id, len(tests)),
				})
			}
		case found:
			if j.Requirement.ID == "" {
				j.Requirement = req
			}
			row.Status = models.StatusJustified
			row.Justification = &j
			result.Justified = append(result.Justified, j)
		default:
			row.Status = models.StatusUncovered
			result.Unjustified = append(result.Unjustified, models.Justification{Requirement: req})
		}
		result.Requirements = append(result.Requirements, row)
	}

	if enum, ok := justifications.(JustificationEnumerator); ok {
		for _, id := range enum.IDs() {
			if _, known := byID[id]; known {
				continue
			}
			result.Anomalies = append(result.Anomalies, models.Anomaly{
				Kind:          models.AnomalyUnknownJustification,
				Severity:      models.SeverityWarning,
				RequirementID: id,
				Message:       fmt.Sprintf("justification given for unknown requirement %q", id),
			})
		}
	}

	sortAnomalies(result.Anomalies)
	return result
}

// lookup returns a defined justification for id, if any.
func lookup(justifications JustificationLookup, id string) (models.Justification, bool) {
	if justifications == nil {
		return models.Justification{}, false
	}
	j, ok := justifications.Lookup(id)
	if !ok || !j.IsDefined() {
		return models.Justification{}, false
	}
	return j, true
}

type scopeKey struct {
	kind  models.SourceKind
	scope string
	id    string
}

func duplicateAnomalies(cases []models.TestCase) []models.Anomaly {
	counts := make(map[scopeKey]int)
	var order []scopeKey
	for _, tc := range cases {
		key := scopeKey{kind: tc.Kind(), scope: tc.Scope(), id: tc.TestID()}
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}

	var anomalies []models.Anomaly
	for _, key := range order {
		if counts[key] < 2 {
			continue
		}
		anomalies = append(anomalies, models.Anomaly{
			Kind:     models.AnomalyDuplicateTestID,
			Severity: models.SeverityWarning,
			TestID:   key.id,
			Scope:    key.scope,
			Message:  fmt.Sprintf("%s test id %q appears %d times in %s", key.kind, key.id, counts[key], key.scope),
		})
	}
	return anomalies
}

func locationString(tc models.TestCase) string {
	loc := tc.Location()
	if loc.Line > 0 {
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	}
	return loc.File
}

func sortTests(tests []models.TestCase) {
	sort.SliceStable(tests, func(i, j int) bool {
		a, b := tests[i], tests[j]
		if a.Scope() != b.Scope() {
			return a.Scope() < b.Scope()
		}
		if a.TestID() != b.TestID() {
			return a.TestID() < b.TestID()
		}
		return a.Location().Line < b.Location().Line
	})
}

func sortAnomalies(anomalies []models.Anomaly) {
	sort.SliceStable(anomalies, func(i, j int) bool {
		a, b := anomalies[i], anomalies[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Scope != b.Scope {
			return a.Scope < b.Scope
		}
		if a.TestID != b.TestID {
			return a.TestID < b.TestID
		}
		if a.RequirementID != b.RequirementID {
			return a.RequirementID < b.RequirementID
		}
		return a.Message < b.Message
	})
}
