package display

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/harrison/tracematrix/internal/history"
)

// RenderRuns writes one row per recorded run, newest first as given.
func RenderRuns(w io.Writer, runs []*history.Run, color bool) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	st := newStyles(color)

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.State,
			fmt.Sprintf("%.1f%%", r.Summary.CoveragePercent()),
			strconv.Itoa(r.Summary.Requirements),
			strconv.Itoa(r.Summary.Uncovered),
			strconv.Itoa(r.Summary.Anomalies),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(st.border).
		Headers("RUN", "STARTED", "STATE", "COVERAGE", "REQS", "UNCOVERED", "ANOMALIES").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	_, err := fmt.Fprintln(w, t.String())
	return err
}

// RenderRunStatuses lists the requirement statuses of one run.
func RenderRunStatuses(w io.Writer, run *history.Run, color bool) error {
	st := newStyles(color)
	fmt.Fprintf(w, "Run %s (%s, %s)\n", run.ID, run.State, run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if run.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", run.Error)
	}
	for _, s := range run.Statuses {
		line := fmt.Sprintf("  %-12s %-10s %d test(s)", s.RequirementID, s.Status, s.TestCount)
		if s.Justification != "" {
			line += "  " + s.Justification
		}
		fmt.Fprintln(w, st.muted.Render(line))
	}
	_, err := fmt.Fprintln(w, SummaryLine(run.Summary))
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
