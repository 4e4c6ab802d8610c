// Package analyzer runs one traceability pass: it searches the configured
// sources, extracts test metadata, loads the catalog and justifications,
// and correlates them inside a status tracker.
package analyzer

import (
	"context"
	"fmt"
	"sync"

	"github.com/harrison/tracematrix/internal/catalog"
	"github.com/harrison/tracematrix/internal/config"
	"github.com/harrison/tracematrix/internal/correlate"
	"github.com/harrison/tracematrix/internal/extractor"
	"github.com/harrison/tracematrix/internal/fileutil"
	"github.com/harrison/tracematrix/internal/logger"
	"github.com/harrison/tracematrix/internal/models"
	"github.com/harrison/tracematrix/internal/status"
)

// Stats describes what a run read. It is complete once the tracker has
// reached a terminal state.
type Stats struct {
	// Files counts searched files per source kind
	Files map[models.SourceKind]int
	// FileErrors lists files that could not be read or parsed
	FileErrors []extractor.FileError
	// SearchErrors lists directories that could not be walked
	SearchErrors []error
}

// Analyzer owns one tracked run. Create a new Analyzer per run.
type Analyzer struct {
	cfg     *config.Config
	log     logger.Logger
	tracker *status.Tracker[*correlate.Result]

	mu    sync.Mutex
	stats Stats
}

// New creates an analyzer for cfg. A nil log discards messages.
func New(cfg *config.Config, log logger.Logger) *Analyzer {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Analyzer{
		cfg:     cfg,
		log:     log,
		tracker: status.NewTracker[*correlate.Result](),
		stats:   Stats{Files: make(map[models.SourceKind]int)},
	}
}

// Tracker exposes the run state to observers.
func (a *Analyzer) Tracker() *status.Tracker[*correlate.Result] {
	return a.tracker
}

// Run analyzes on the calling goroutine and returns the final snapshot.
// Analysis failures are reported through the snapshot, not the error; the
// error is only set when the analyzer was already started.
func (a *Analyzer) Run(ctx context.Context) (status.Snapshot[*correlate.Result], error) {
	return a.tracker.Run(ctx, a.analyze)
}

// Start analyzes on a new goroutine. Use Tracker to observe progress.
func (a *Analyzer) Start(ctx context.Context) error {
	return a.tracker.Start(ctx, a.analyze)
}

// Stats returns a copy of the run statistics.
func (a *Analyzer) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	files := make(map[models.SourceKind]int, len(a.stats.Files))
	for k, v := range a.stats.Files {
		files[k] = v
	}
	return Stats{
		Files:        files,
		FileErrors:   append([]extractor.FileError(nil), a.stats.FileErrors...),
		SearchErrors: append([]error(nil), a.stats.SearchErrors...),
	}
}

// source is a validated, ready-to-run source entry.
type source struct {
	index   int
	kind    models.SourceKind
	filters *fileutil.FileSearchFilterSet
	ex      extractor.Extractor
}

func (a *Analyzer) analyze(ctx context.Context) (*correlate.Result, error) {
	if a.cfg == nil {
		return nil, fmt.Errorf("no configuration")
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	sources, err := a.prepareSources()
	if err != nil {
		return nil, err
	}

	reqs, err := catalog.LoadRequirements(a.cfg.Catalog)
	if err != nil {
		return nil, err
	}
	a.log.Infof("Loaded %d requirement(s) from %s", len(reqs), a.cfg.Catalog)

	var lookup correlate.JustificationLookup
	if a.cfg.Justifications != "" {
		j, err := catalog.LoadJustifications(a.cfg.Justifications)
		if err != nil {
			return nil, err
		}
		a.log.Infof("Loaded %d justification(s) from %s", j.Len(), a.cfg.Justifications)
		lookup = j
	}

	cases, err := a.extractAll(ctx, sources)
	if err != nil {
		return nil, err
	}

	result := correlate.Correlate(reqs, cases, lookup)
	for _, an := range result.Anomalies {
		a.log.Debugf("anomaly: %s", an)
	}
	a.log.LogSummary(result.Summary())
	return result, nil
}

// prepareSources builds filters and extractors for every configured
// source. The first invalid source aborts the run.
func (a *Analyzer) prepareSources() ([]source, error) {
	filter, err := a.cfg.RequirementPattern()
	if err != nil {
		return nil, err
	}

	sources := make([]source, 0, len(a.cfg.Sources))
	for i, sc := range a.cfg.Sources {
		kind, err := sc.SourceKind()
		if err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		set, err := sc.FilterSet()
		if err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		ex, err := extractor.New(kind, sc.ExtractorOptions(filter, a.log))
		if err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		sources = append(sources, source{index: i, kind: kind, filters: set, ex: ex})
	}
	return sources, nil
}

type kindResult struct {
	cases        []models.TestCase
	files        int
	fileErrors   []extractor.FileError
	searchErrors []error
	err          error
}

// extractAll runs one goroutine per source kind and merges their results
// in models.SourceKinds order, each kind's sources in config order.
func (a *Analyzer) extractAll(ctx context.Context, sources []source) ([]models.TestCase, error) {
	byKind := make(map[models.SourceKind][]source)
	for _, s := range sources {
		byKind[s.kind] = append(byKind[s.kind], s)
	}

	results := make(map[models.SourceKind]*kindResult, len(byKind))
	var wg sync.WaitGroup
	for kind, group := range byKind {
		res := &kindResult{}
		results[kind] = res
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.extractKind(ctx, group, res)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis cancelled: %w", err)
	}

	var cases []models.TestCase
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, kind := range models.SourceKinds {
		res, ok := results[kind]
		if !ok {
			continue
		}
		if res.err != nil {
			return nil, res.err
		}
		a.stats.Files[kind] += res.files
		a.stats.FileErrors = append(a.stats.FileErrors, res.fileErrors...)
		a.stats.SearchErrors = append(a.stats.SearchErrors, res.searchErrors...)
		a.log.Infof("%s: %d test(s) in %d file(s)", kind, len(res.cases), res.files)
		cases = append(cases, res.cases...)
	}
	return cases, nil
}

// extractKind reads each file at most once even when several sources of
// the same kind match it.
func (a *Analyzer) extractKind(ctx context.Context, group []source, res *kindResult) {
	seen := make(map[string]struct{})
	for _, s := range group {
		found, err := fileutil.Search(s.filters, a.log)
		if err != nil {
			res.err = fmt.Errorf("sources[%d]: %w", s.index, err)
			return
		}
		res.searchErrors = append(res.searchErrors, found.Errors...)

		files := make([]string, 0, len(found.Files))
		for _, f := range found.Files {
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			files = append(files, f)
		}
		res.files += len(files)
		a.log.Debugf("%s: %d candidate file(s) for sources[%d]", s.kind, len(files), s.index)

		cases, failures := extractor.ExtractAll(ctx, s.ex, files, a.log)
		res.cases = append(res.cases, cases...)
		res.fileErrors = append(res.fileErrors, failures...)
	}
}
