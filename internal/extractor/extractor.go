// Package extractor mines test metadata from source artifacts.
//
// Each source kind has its own Extractor: Java and C# tests are found
// through their doc comments, Go tests through go/ast, and Gherkin
// scenarios through the structural parser. All of them produce
// models.TestCase values carrying a test id, an expected result and the
// covered requirement ids.
package extractor

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harrison/tracematrix/internal/models"
	"github.com/harrison/tracematrix/internal/wildcard"
)

// Extractor mines test cases from files of one source kind.
type Extractor interface {
	Kind() models.SourceKind
	// ExtractFile reads and mines the file at path.
	ExtractFile(path string) ([]models.TestCase, error)
	// Extract mines r, reporting locations against path.
	Extract(path string, r io.Reader) ([]models.TestCase, error)
}

// Logger is the subset of logging the extractors need.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}

// Vocabulary spells the three tag roles for one source kind.
type Vocabulary struct {
	TestID   string `yaml:"test_id"`
	Expected string `yaml:"expected"`
	Covers   string `yaml:"covers"`
}

// withDefaults fills empty roles from def.
func (v Vocabulary) withDefaults(def Vocabulary) Vocabulary {
	if v.TestID == "" {
		v.TestID = def.TestID
	}
	if v.Expected == "" {
		v.Expected = def.Expected
	}
	if v.Covers == "" {
		v.Covers = def.Covers
	}
	return v
}

func (v Vocabulary) tokens() []string {
	return []string{v.TestID, v.Expected, v.Covers}
}

// DefaultVocabulary returns the tag spelling used for kind.
func DefaultVocabulary(kind models.SourceKind) Vocabulary {
	switch kind {
	case models.SourceJava:
		return Vocabulary{TestID: "@testId", Expected: "@expectedResult", Covers: "@covers"}
	case models.SourceCSharp:
		return Vocabulary{TestID: "<testId>", Expected: "<expectedResult>", Covers: "<covers>"}
	case models.SourceGo:
		return Vocabulary{TestID: "TestID:", Expected: "Expected:", Covers: "Covers:"}
	default:
		return Vocabulary{}
	}
}

// DefaultMarkers returns the annotations or attributes that mark a test
// method for kind.
func DefaultMarkers(kind models.SourceKind) []string {
	switch kind {
	case models.SourceJava:
		return []string{"@Test", "@ParameterizedTest", "@RepeatedTest", "@TestFactory"}
	case models.SourceCSharp:
		return []string{"[Test", "[TestMethod", "[Fact", "[Theory", "[TestCase"}
	default:
		return nil
	}
}

// Options configures an extractor. Zero values select the kind defaults.
type Options struct {
	Vocabulary Vocabulary
	// RequirementFilter drops covered ids that do not match. Nil keeps all.
	RequirementFilter *wildcard.Pattern
	Markers           []string
	// TagPrefix is stripped from Gherkin tags; tags without it are not
	// requirement references. Empty means every tag is a candidate.
	TagPrefix string
	Logger    Logger
}

// New returns the extractor for kind.
func New(kind models.SourceKind, opts Options) (Extractor, error) {
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if opts.Markers == nil {
		opts.Markers = DefaultMarkers(kind)
	}
	opts.Vocabulary = opts.Vocabulary.withDefaults(DefaultVocabulary(kind))

	switch kind {
	case models.SourceJava:
		return &JavaExtractor{opts: opts}, nil
	case models.SourceCSharp:
		return NewCSharpExtractor(opts), nil
	case models.SourceGo:
		return &GoExtractor{opts: opts}, nil
	case models.SourceGherkin:
		return &GherkinExtractor{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unsupported source kind: %q", kind)
	}
}

// FileError records a file that could not be mined.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// ExtractAll runs ex over files. Files that cannot be read or parsed are
// logged and collected; they never stop the scan. A cancelled ctx stops
// before the next file.
func ExtractAll(ctx context.Context, ex Extractor, files []string, logger Logger) ([]models.TestCase, []FileError) {
	if logger == nil {
		logger = nopLogger{}
	}

	var cases []models.TestCase
	var failures []FileError
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		found, err := ex.ExtractFile(path)
		if err != nil {
			logger.Warnf("%s extractor: skipping %s: %v", ex.Kind(), path, err)
			failures = append(failures, FileError{Path: path, Err: err})
			continue
		}
		logger.Debugf("%s extractor: %d test(s) in %s", ex.Kind(), len(found), path)
		cases = append(cases, found...)
	}
	return cases, failures
}

// extractFile opens path and hands it to extract.
func extractFile(path string, extract func(string, io.Reader) ([]models.TestCase, error)) ([]models.TestCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	defer f.Close()
	return extract(path, f)
}

// parseIDs splits a comma-separated id list, trimming blanks and
// dropping empty entries.
func parseIDs(s string) []string {
	parts := strings.Split(s, ",")
	var ids []string
	for _, p := range parts {
		id := strings.TrimSpace(p)
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// filterIDs removes duplicates, keeping first-seen order, and drops ids
// rejected by filter.
func filterIDs(ids []string, filter *wildcard.Pattern, logger Logger, where string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if filter != nil && !filter.Match(id) {
			logger.Debugf("%s: dropping %q (does not match %s)", where, id, filter)
			continue
		}
		out = append(out, id)
	}
	return out
}
