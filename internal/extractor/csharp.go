package extractor

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/harrison/tracematrix/internal/models"
)

var csNamespaceRe = regexp.MustCompile(`^\s*namespace\s+([\w.]+)`)

var csharpStyle = tagStyle{
	closing:   xmlClosing,
	startsTag: func(text string) bool { return strings.HasPrefix(text, "<") },
}

// CSharpExtractor mines NUnit, MSTest and xUnit tests documented with
// XML doc comments:
//
//	/// <testId>TC-CART-1</testId>
//	/// <expectedResult>the cart total is updated</expectedResult>
//	/// <covers>REQ-10</covers>
//	[Test]
//	public void AddsItem() { ... }
//
// Tests are grouped by the assembly of the nearest project file.
type CSharpExtractor struct {
	opts Options

	mu sync.Mutex
	// assemblies caches the assembly name resolved for a directory.
	assemblies map[string]string
}

// NewCSharpExtractor returns a C# extractor. Zero option fields select
// the C# defaults.
func NewCSharpExtractor(opts Options) *CSharpExtractor {
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if opts.Markers == nil {
		opts.Markers = DefaultMarkers(models.SourceCSharp)
	}
	opts.Vocabulary = opts.Vocabulary.withDefaults(DefaultVocabulary(models.SourceCSharp))
	return &CSharpExtractor{opts: opts, assemblies: make(map[string]string)}
}

func (e *CSharpExtractor) Kind() models.SourceKind { return models.SourceCSharp }

func (e *CSharpExtractor) ExtractFile(path string) ([]models.TestCase, error) {
	return extractFile(path, e.Extract)
}

func (e *CSharpExtractor) Extract(path string, r io.Reader) ([]models.TestCase, error) {
	lines, err := readSourceLines(r)
	if err != nil {
		return nil, fmt.Errorf("read c# source: %w", err)
	}

	var (
		cases     []models.TestCase
		namespace string
		class     string
		doc       *docBlock
		marked    bool
		inBlock   bool
	)

	for i, raw := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(raw)

		if inBlock {
			_, closed := cutCommentEnd(trimmed)
			inBlock = !closed
			continue
		}

		if strings.HasPrefix(trimmed, "///") {
			text := strings.TrimSpace(strings.TrimPrefix(trimmed, "///"))
			if doc == nil {
				doc = &docBlock{start: lineNo}
				marked = false
			}
			doc.lines = append(doc.lines, docLine{text: text, line: lineNo})
			continue
		}

		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#"):
			continue
		case strings.HasPrefix(trimmed, "/*"):
			_, closed := cutCommentEnd(strings.TrimPrefix(trimmed, "/*"))
			inBlock = !closed
			continue
		}

		if m := csNamespaceRe.FindStringSubmatch(trimmed); m != nil {
			namespace = m[1]
			doc = nil
			continue
		}

		attributes, rest := splitLeading(trimmed, '[')
		for _, a := range attributes {
			if matchesAnyMarker(a, e.opts.Markers) || attributeListHasMarker(a, e.opts.Markers) {
				marked = true
			}
		}
		if rest == "" || rest == "{" || rest == "}" {
			continue
		}

		if name, ok := typeName(rest); ok {
			class = name
			doc = nil
			marked = false
			continue
		}

		name, ok := methodName(rest)
		if !ok {
			doc = nil
			marked = false
			continue
		}

		if tc := e.build(path, namespace, class, name, lineNo, doc, marked); tc != nil {
			cases = append(cases, tc)
		}
		doc = nil
		marked = false
	}

	return cases, nil
}

func (e *CSharpExtractor) build(path, namespace, class, method string, line int, doc *docBlock, marked bool) models.TestCase {
	where := fmt.Sprintf("%s:%d", path, line)
	if !marked {
		if doc != nil && collectTags(doc.lines, e.opts.Vocabulary, csharpStyle).testID != "" {
			e.opts.Logger.Debugf("%s: %s.%s has a %s tag but no test marker; skipped", where, class, method, e.opts.Vocabulary.TestID)
		}
		return nil
	}
	if doc == nil {
		e.opts.Logger.Debugf("%s: test %s.%s has no doc comment; skipped", where, class, method)
		return nil
	}

	tags := collectTags(doc.lines, e.opts.Vocabulary, csharpStyle)
	if tags.testID == "" {
		e.opts.Logger.Debugf("%s: test %s.%s has no %s tag; skipped", where, class, method, e.opts.Vocabulary.TestID)
		return nil
	}
	if tags.extraIDs > 0 {
		e.opts.Logger.Debugf("%s: %d extra %s tag(s) ignored", where, tags.extraIDs, e.opts.Vocabulary.TestID)
	}

	return &models.CSharpTestCase{
		TestCaseBase: models.TestCaseBase{
			SourceKind: models.SourceCSharp,
			ID:         tags.testID,
			Expected:   strings.Join(tags.expected, "; "),
			Covers:     filterIDs(tags.covers, e.opts.RequirementFilter, e.opts.Logger, where),
			File:       path,
			Line:       line,
		},
		Assembly:  e.assemblyFor(path),
		Namespace: namespace,
		Class:     class,
		Method:    method,
	}
}

// attributeListHasMarker checks every entry of "[A, B(x)]".
func attributeListHasMarker(attr string, markers []string) bool {
	body := strings.TrimSuffix(strings.TrimPrefix(attr, "["), "]")
	for _, part := range strings.Split(body, ",") {
		if matchesAnyMarker("["+strings.TrimSpace(part), markers) {
			return true
		}
	}
	return false
}

// assemblyFor finds the nearest *.csproj at or above the file's directory
// and returns its AssemblyName, or the project file name without
// extension. It returns "" when no project file exists.
func (e *CSharpExtractor) assemblyFor(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	dir := filepath.Dir(abs)

	e.mu.Lock()
	defer e.mu.Unlock()

	var visited []string
	name := ""
	for {
		if cached, ok := e.assemblies[dir]; ok {
			name = cached
			break
		}
		visited = append(visited, dir)
		if project, ok := findProject(dir); ok {
			name = projectAssembly(project, e.opts.Logger)
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	for _, d := range visited {
		e.assemblies[d] = name
	}
	return name
}

// findProject returns the first *.csproj in dir by name.
func findProject(dir string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csproj"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	sort.Strings(matches)
	return matches[0], true
}

// projectAssembly reads the AssemblyName property of a project file.
func projectAssembly(project string, logger Logger) string {
	fallback := strings.TrimSuffix(filepath.Base(project), filepath.Ext(project))

	f, err := os.Open(project)
	if err != nil {
		logger.Warnf("c# extractor: reading %s: %v", project, err)
		return fallback
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warnf("c# extractor: parsing %s: %v", project, err)
			}
			return fallback
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "AssemblyName" {
			continue
		}
		var value string
		if err := dec.DecodeElement(&value, &start); err != nil {
			return fallback
		}
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
}
