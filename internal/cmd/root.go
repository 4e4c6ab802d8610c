package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for tracematrix
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracematrix",
		Short: "Requirements-to-tests traceability matrix",
		Long: `tracematrix builds a traceability matrix between a requirement catalog
and the tests that verify it.

It scans Java, C#, Go and Gherkin test sources for documented test ids
and requirement references, correlates them with the catalog, and reports
covered, justified and uncovered requirements along with any anomalies.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewAnalyzeCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
