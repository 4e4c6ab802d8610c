package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/tracematrix/internal/analyzer"
	"github.com/harrison/tracematrix/internal/config"
	"github.com/harrison/tracematrix/internal/correlate"
	"github.com/harrison/tracematrix/internal/display"
	"github.com/harrison/tracematrix/internal/fileutil"
	"github.com/harrison/tracematrix/internal/history"
	"github.com/harrison/tracematrix/internal/logger"
	"github.com/harrison/tracematrix/internal/status"
	"github.com/harrison/tracematrix/internal/watch"
)

// NewAnalyzeCommand creates the analyze command
func NewAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Build the traceability matrix",
		Long: `Search the configured test sources, extract test metadata and correlate
it with the requirement catalog.

Configuration is loaded from .tracematrix/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  tracematrix analyze
  tracematrix analyze --config ci/tracematrix.yaml --report out/matrix.json
  tracematrix analyze --json > matrix.json
  tracematrix analyze --fail-on-uncovered      # exit 2 when requirements are untested
  tracematrix analyze --watch                  # rebuild the matrix on every change`,
		Args: cobra.NoArgs,
		RunE: runAnalyze,
	}

	addConfigFlag(cmd)
	cmd.Flags().String("report", "", "Write the JSON report to this path")
	cmd.Flags().Bool("json", false, "Print the JSON report instead of the table")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
	cmd.Flags().String("log-level", "", "Log level (trace, debug, info, warn, error)")
	cmd.Flags().Bool("fail-on-uncovered", false, "Fail when requirements are neither covered nor justified")
	cmd.Flags().Bool("watch", false, "Re-run the analysis whenever a source, catalog or justification file changes")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	mergeAnalyzeFlags(cmd, cfg)

	consoleLog := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	var log logger.Logger = consoleLog
	if cfg.LogDir != "" {
		fileLog, err := logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer fileLog.Close()
		log = logger.NewMultiLogger(consoleLog, fileLog)
	}

	err = analyzeOnce(cmd, cfg, log)
	if watchMode, _ := cmd.Flags().GetBool("watch"); !watchMode {
		return err
	}
	if err != nil {
		log.Errorf("%v", err)
	}
	return watchAndAnalyze(cmd, cfg, log)
}

// analyzeOnce runs one tracked analysis and emits its outputs.
func analyzeOnce(cmd *cobra.Command, cfg *config.Config, log logger.Logger) error {
	a := analyzer.New(cfg, log)
	snap, err := a.Run(cmd.Context())
	if err != nil {
		return err
	}

	if cfg.History.Enabled {
		recordHistory(cmd, cfg, snap, log)
	}

	if snap.State != status.EndedSuccess {
		return fmt.Errorf("analysis failed: %w", snap.Err)
	}
	result := snap.Result

	report := analyzer.NewReport(result, a.Stats(), cfg.Catalog, snap.EndedAt)
	if cfg.Report != "" {
		if err := analyzer.WriteReport(cmd.Context(), cfg.Report, report); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		log.Infof("Report written to %s", cfg.Report)
	}

	out := cmd.OutOrStdout()
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	} else if err := display.RenderCoverage(out, result, display.Options{Color: display.ColorEnabled(out)}); err != nil {
		return err
	}

	if failOn, _ := cmd.Flags().GetBool("fail-on-uncovered"); failOn && len(result.Unjustified) > 0 {
		return fmt.Errorf("%d requirement(s): %w", len(result.Unjustified), ErrUncovered)
	}
	return nil
}

// watchAndAnalyze re-runs the analysis after every batch of changes until
// the process is interrupted.
func watchAndAnalyze(cmd *cobra.Command, cfg *config.Config, log logger.Logger) error {
	var filters []fileutil.FileSearchFilter
	for i, src := range cfg.Sources {
		set, err := src.FilterSet()
		if err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
		filters = append(filters, set.Filters()...)
	}
	files := []string{cfg.Catalog}
	if cfg.Justifications != "" {
		files = append(files, cfg.Justifications)
	}

	w, err := watch.New(filters, files...)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("Watching %d source root(s) for changes, press Ctrl+C to stop", len(filters))
	return watchLoop(ctx, w.Changes(), w.Errors(), func() error {
		return analyzeOnce(cmd, cfg, log)
	}, log)
}

// watchLoop calls rerun once per batch. Failed passes are logged and the
// loop keeps going; it returns nil when ctx ends or changes is closed.
func watchLoop(ctx context.Context, changes <-chan []watch.Event, errs <-chan error, rerun func() error, log logger.Logger) error {
	for {
		select {
		case <-ctx.Done():
			log.Infof("Stopped watching")
			return nil
		case err := <-errs:
			log.Warnf("watch: %v", err)
		case batch, ok := <-changes:
			if !ok {
				return nil
			}
			log.Infof("%d file(s) changed, re-running analysis", len(batch))
			for _, ev := range batch {
				log.Debugf("  %s %s", ev.Op, ev.Path)
			}
			if err := rerun(); err != nil {
				log.Errorf("%v", err)
			}
		}
	}
}

// mergeAnalyzeFlags applies only the flags the user set.
func mergeAnalyzeFlags(cmd *cobra.Command, cfg *config.Config) {
	var logLevel, report *string
	var noHistory *bool
	if cmd.Flags().Changed("log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		logLevel = &v
	}
	if cmd.Flags().Changed("report") {
		v, _ := cmd.Flags().GetString("report")
		report = &v
	}
	if cmd.Flags().Changed("no-history") {
		v, _ := cmd.Flags().GetBool("no-history")
		noHistory = &v
	}
	cfg.MergeWithFlags(logLevel, report, noHistory)
}

// recordHistory stores the run. Failures are logged, never fatal.
func recordHistory(cmd *cobra.Command, cfg *config.Config, snap status.Snapshot[*correlate.Result], log logger.Logger) {
	store, err := history.NewStore(cfg.History.DBPath)
	if err != nil {
		log.Warnf("history: %v", err)
		return
	}
	defer store.Close()

	run := history.NewRun(snap.Result, cfg.Catalog, snap.State.String(), snap.StartedAt, snap.Duration())
	if snap.Err != nil {
		run.Error = snap.Err.Error()
	}
	if err := store.RecordRun(cmd.Context(), run); err != nil {
		log.Warnf("history: %v", err)
		return
	}
	log.Debugf("history: recorded run %s in %s (%s)", run.ID, cfg.History.DBPath, snap.Duration().Round(time.Millisecond))
}
