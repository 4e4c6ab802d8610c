package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/tracematrix/internal/display"
	"github.com/harrison/tracematrix/internal/history"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded analyze runs",
		Long: `List the analyze runs recorded in the history database, newest first.

Examples:
  tracematrix history
  tracematrix history --limit 50
  tracematrix history --run 3f2a9c1e-...   # per-requirement statuses of one run`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	addConfigFlag(cmd)
	cmd.Flags().Int("limit", 10, "Maximum number of runs to list (0 = all)")
	cmd.Flags().String("run", "", "Show the requirement statuses of one run")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.History.DBPath == "" {
		return fmt.Errorf("history.db_path is not configured")
	}

	store, err := history.NewStore(cfg.History.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	color := display.ColorEnabled(out)

	if runID, _ := cmd.Flags().GetString("run"); runID != "" {
		run, err := store.GetRun(cmd.Context(), runID)
		if err != nil {
			return err
		}
		return display.RenderRunStatuses(out, run, color)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return fmt.Errorf("--limit must be >= 0, got %d", limit)
	}
	runs, err := store.GetRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return display.RenderRuns(out, runs, color)
}
