package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harrison/tracematrix/internal/catalog"
	"github.com/harrison/tracematrix/internal/config"
	"github.com/harrison/tracematrix/internal/fileutil"
	"github.com/harrison/tracematrix/internal/gherkin"
	"github.com/harrison/tracematrix/internal/models"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check configuration, catalog and feature files",
		Long: `Validate the configuration without building the matrix, checking for:
  - Invalid settings, patterns and unknown source kinds
  - Missing or non-directory source roots
  - Unreadable or malformed catalogs and justification files
  - Gherkin files that fail to parse (reported with line numbers)

Exit code: 0 if valid, 1 if errors found`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return validateWithOutput(cfg, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}

	addConfigFlag(cmd)
	return cmd
}

// validateWithOutput validates cfg and everything it points at, writing one
// line per check to output.
func validateWithOutput(cfg *config.Config, output io.Writer) error {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(output, "✗ Configuration: %v\n", err)
		return fmt.Errorf("validation failed: %w", err)
	}
	fmt.Fprintf(output, "✓ Configuration valid (%d source(s))\n", len(cfg.Sources))

	problems := 0

	reqs, err := catalog.LoadRequirements(cfg.Catalog)
	if err != nil {
		fmt.Fprintf(output, "✗ Catalog: %v\n", err)
		problems++
	} else {
		fmt.Fprintf(output, "✓ Catalog: %d requirement(s)\n", len(reqs))
	}

	if cfg.Justifications != "" {
		j, err := catalog.LoadJustifications(cfg.Justifications)
		if err != nil {
			fmt.Fprintf(output, "✗ Justifications: %v\n", err)
			problems++
		} else {
			fmt.Fprintf(output, "✓ Justifications: %d\n", j.Len())
		}
	}

	for i, src := range cfg.Sources {
		set, err := src.FilterSet()
		if err != nil {
			fmt.Fprintf(output, "✗ sources[%d] (%s): %v\n", i, src.Kind, err)
			problems++
			continue
		}
		found, err := fileutil.Search(set, nil)
		if err != nil {
			fmt.Fprintf(output, "✗ sources[%d] (%s): %v\n", i, src.Kind, err)
			problems++
			continue
		}
		fmt.Fprintf(output, "✓ sources[%d] (%s): %d file(s) in %s\n", i, src.Kind, len(found.Files), src.Root)
		for _, serr := range found.Errors {
			fmt.Fprintf(output, "  ⚠ %v\n", serr)
		}

		if kind, _ := src.SourceKind(); kind == models.SourceGherkin {
			for _, path := range found.Files {
				if _, err := gherkin.ParseFile(path); err != nil {
					fmt.Fprintf(output, "  ✗ %v\n", err)
					problems++
				}
			}
		}
	}

	if problems > 0 {
		return fmt.Errorf("validation failed: %d problem(s) found", problems)
	}
	fmt.Fprintln(output, "✓ All checks passed")
	return nil
}
