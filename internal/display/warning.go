package display

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/harrison/tracematrix/internal/models"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Items      []string // Related entries, numbered in output (optional)
	Suggestion string   // Action to take (optional)
	Color      bool     // Wrap the warning in yellow
}

// Display shows a formatted warning, in yellow when Color is set
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	if w.Color {
		b.WriteString(ansiYellow)
	}
	b.WriteString("⚠️  Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	for i, item := range w.Items {
		b.WriteString(fmt.Sprintf("      %d. %s\n", i+1, item))
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	if w.Color {
		b.WriteString(ansiReset)
	}

	fmt.Fprint(out, b.String())
}

var anomalyTitles = map[models.AnomalyKind]string{
	models.AnomalyOrphanReference:      "Tests reference unknown requirements",
	models.AnomalyDuplicateTestID:      "Duplicate test ids",
	models.AnomalyEmptyCoverage:        "Tests without requirement references",
	models.AnomalyJustifiedButCovered:  "Justified requirements that are covered",
	models.AnomalyUnknownJustification: "Justifications for unknown requirements",
}

var anomalySuggestions = map[models.AnomalyKind]string{
	models.AnomalyOrphanReference:      "Fix the covers tag or add the requirement to the catalog",
	models.AnomalyDuplicateTestID:      "Give every test in the same scope a unique test id",
	models.AnomalyEmptyCoverage:        "Add the requirements the test verifies to its covers tag",
	models.AnomalyJustifiedButCovered:  "Remove the justification now that a test exists",
	models.AnomalyUnknownJustification: "Remove the justification or add the requirement to the catalog",
}

// AnomalyWarnings groups anomalies by kind into one warning per kind, in a
// stable kind order.
func AnomalyWarnings(anomalies []models.Anomaly, color bool) []Warning {
	byKind := make(map[models.AnomalyKind][]string)
	var kinds []models.AnomalyKind
	for _, a := range anomalies {
		if _, ok := byKind[a.Kind]; !ok {
			kinds = append(kinds, a.Kind)
		}
		byKind[a.Kind] = append(byKind[a.Kind], a.Message)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	warnings := make([]Warning, 0, len(kinds))
	for _, k := range kinds {
		title := anomalyTitles[k]
		if title == "" {
			title = string(k)
		}
		warnings = append(warnings, Warning{
			Title:      fmt.Sprintf("%s (%d)", title, len(byKind[k])),
			Items:      byKind[k],
			Suggestion: anomalySuggestions[k],
			Color:      color,
		})
	}
	return warnings
}
