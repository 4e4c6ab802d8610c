package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"github.com/harrison/tracematrix/internal/correlate"
	"github.com/harrison/tracematrix/internal/models"
)

const (
	// DefaultMaxTests is how many covering test ids a row lists.
	DefaultMaxTests = 3
	// DefaultMaxDetailWidth is the display width the DETAIL column is cut to.
	DefaultMaxDetailWidth = 60
)

// Options controls RenderCoverage.
type Options struct {
	// Color enables styled output
	Color bool
	// MaxTests caps the test ids listed per row (0 = DefaultMaxTests, <0 = all)
	MaxTests int
	// MaxDetailWidth truncates the DETAIL column (0 = DefaultMaxDetailWidth, <0 = never)
	MaxDetailWidth int
	// HideAnomalies omits the anomaly warnings
	HideAnomalies bool
}

type styles struct {
	header    lipgloss.Style
	border    lipgloss.Style
	covered   lipgloss.Style
	justified lipgloss.Style
	uncovered lipgloss.Style
	muted     lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{header: plain, border: plain, covered: plain, justified: plain, uncovered: plain, muted: plain}
	}
	return styles{
		header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		border:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		covered:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		justified: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		uncovered: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (s styles) status(st models.CoverageStatus) lipgloss.Style {
	switch st {
	case models.StatusCovered:
		return s.covered
	case models.StatusJustified:
		return s.justified
	default:
		return s.uncovered
	}
}

// RenderCoverage writes the coverage table, the unjustified requirements
// and the anomaly warnings for result.
func RenderCoverage(w io.Writer, result *correlate.Result, opts Options) error {
	if result == nil {
		return fmt.Errorf("no result to render")
	}
	st := newStyles(opts.Color)

	if _, err := fmt.Fprintln(w, CoverageTable(result, opts)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, st.header.Render(SummaryLine(result.Summary()))); err != nil {
		return err
	}

	if len(result.Unjustified) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, st.uncovered.Render(fmt.Sprintf("Unjustified requirements (%d):", len(result.Unjustified))))
		for _, rc := range result.Unjustified {
			line := "  - " + rc.Requirement.ID
			if rc.Requirement.Description != "" {
				line += ": " + rc.Requirement.Description
			}
			fmt.Fprintln(w, line)
		}
	}

	if !opts.HideAnomalies && len(result.Anomalies) > 0 {
		fmt.Fprintln(w)
		for _, warning := range AnomalyWarnings(result.Anomalies, opts.Color) {
			warning.Display(w)
		}
	}
	return nil
}

// CoverageTable renders one row per requirement.
func CoverageTable(result *correlate.Result, opts Options) string {
	st := newStyles(opts.Color)
	maxTests := opts.MaxTests
	if maxTests == 0 {
		maxTests = DefaultMaxTests
	}
	detailWidth := opts.MaxDetailWidth
	if detailWidth == 0 {
		detailWidth = DefaultMaxDetailWidth
	}

	statuses := make([]models.CoverageStatus, len(result.Requirements))
	rows := make([][]string, 0, len(result.Requirements))
	for i, rc := range result.Requirements {
		statuses[i] = rc.Status
		detail := rc.Requirement.Description
		if rc.Justification != nil && rc.Justification.Text != "" {
			detail = "justified: " + rc.Justification.Text
		}
		if detailWidth > 0 {
			detail = runewidth.Truncate(detail, detailWidth, "…")
		}
		rows = append(rows, []string{
			rc.Requirement.ID,
			strings.ToUpper(string(rc.Status)),
			testList(rc.Tests, maxTests),
			detail,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(st.border).
		Headers("REQUIREMENT", "STATUS", "TESTS", "DETAIL").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return st.header.Padding(0, 1)
			}
			if col == 1 && row >= 0 && row < len(statuses) {
				return st.status(statuses[row]).Padding(0, 1)
			}
			return base
		})
	return t.String()
}

// SummaryLine is the one-line coverage summary printed under the table.
func SummaryLine(s correlate.Summary) string {
	return fmt.Sprintf("Coverage: %.1f%% (%d/%d requirements covered, %d justified, %d uncovered; %d tests, %d anomalies)",
		s.CoveragePercent(), s.Covered, s.Requirements, s.Justified, s.Uncovered, s.Tests, s.Anomalies)
}

func testList(tests []models.TestCase, limit int) string {
	if len(tests) == 0 {
		return "-"
	}
	ids := make([]string, 0, len(tests))
	for i, tc := range tests {
		if limit > 0 && i == limit {
			ids = append(ids, fmt.Sprintf("+%d more", len(tests)-limit))
			break
		}
		ids = append(ids, tc.TestID())
	}
	return strings.Join(ids, ", ")
}
