package extractor

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/harrison/tracematrix/internal/models"
)

var javaPackageRe = regexp.MustCompile(`^\s*package\s+([\w.]+)\s*;`)

var javaStyle = tagStyle{
	closing:   noClosing,
	startsTag: func(text string) bool { return strings.HasPrefix(text, "@") },
}

// JavaExtractor mines JUnit-style tests documented with Javadoc tags:
//
//	/**
//	 * @testId TC-LOGIN-1
//	 * @expectedResult the user is signed in
//	 * @covers REQ-1, REQ-2
//	 */
//	@Test
//	void signsIn() { ... }
type JavaExtractor struct {
	opts Options
}

func (e *JavaExtractor) Kind() models.SourceKind { return models.SourceJava }

func (e *JavaExtractor) ExtractFile(path string) ([]models.TestCase, error) {
	return extractFile(path, e.Extract)
}

func (e *JavaExtractor) Extract(path string, r io.Reader) ([]models.TestCase, error) {
	lines, err := readSourceLines(r)
	if err != nil {
		return nil, fmt.Errorf("read java source: %w", err)
	}

	var (
		cases   []models.TestCase
		pkg     string
		class   string
		doc     *docBlock
		inDoc   bool
		inBlock bool
		marked  bool
	)
	// open parentheses of a multi-line annotation
	annDepth := 0

	for i, raw := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(raw)

		if inDoc {
			text, closed := cutCommentEnd(trimmed)
			doc.lines = append(doc.lines, docLine{text: stripStar(text), line: lineNo})
			inDoc = !closed
			continue
		}
		if inBlock {
			_, closed := cutCommentEnd(trimmed)
			inBlock = !closed
			continue
		}
		if annDepth > 0 {
			annDepth += parenBalance(trimmed)
			continue
		}

		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, "//"):
			continue
		case strings.HasPrefix(trimmed, "/**") && !strings.HasPrefix(trimmed, "/**/"):
			text, closed := cutCommentEnd(strings.TrimPrefix(trimmed, "/**"))
			doc = &docBlock{start: lineNo, lines: []docLine{{text: stripStar(text), line: lineNo}}}
			marked = false
			inDoc = !closed
			continue
		case strings.HasPrefix(trimmed, "/*"):
			_, closed := cutCommentEnd(strings.TrimPrefix(trimmed, "/*"))
			inBlock = !closed
			continue
		}

		if m := javaPackageRe.FindStringSubmatch(trimmed); m != nil {
			pkg = m[1]
			doc = nil
			continue
		}

		annotations, rest := splitLeading(trimmed, '@')
		for _, a := range annotations {
			if matchesAnyMarker(a, e.opts.Markers) {
				marked = true
			}
		}
		if n := len(annotations); n > 0 && rest == "" {
			annDepth = parenBalance(annotations[n-1])
		}
		if rest == "" {
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

		if tc := e.build(path, pkg, class, name, lineNo, doc, marked); tc != nil {
			cases = append(cases, tc)
		}
		doc = nil
		marked = false
	}

	return cases, nil
}

func (e *JavaExtractor) build(path, pkg, class, method string, line int, doc *docBlock, marked bool) models.TestCase {
	where := fmt.Sprintf("%s:%d", path, line)
	if !marked {
		if doc != nil && collectTags(doc.lines, e.opts.Vocabulary, javaStyle).testID != "" {
			e.opts.Logger.Debugf("%s: %s.%s has a %s tag but no test marker; skipped", where, class, method, e.opts.Vocabulary.TestID)
		}
		return nil
	}
	if doc == nil {
		e.opts.Logger.Debugf("%s: test %s.%s has no doc comment; skipped", where, class, method)
		return nil
	}

	tags := collectTags(doc.lines, e.opts.Vocabulary, javaStyle)
	if tags.testID == "" {
		e.opts.Logger.Debugf("%s: test %s.%s has no %s tag; skipped", where, class, method, e.opts.Vocabulary.TestID)
		return nil
	}
	if tags.extraIDs > 0 {
		e.opts.Logger.Debugf("%s: %d extra %s tag(s) ignored", where, tags.extraIDs, e.opts.Vocabulary.TestID)
	}

	return &models.JavaTestCase{
		TestCaseBase: models.TestCaseBase{
			SourceKind: models.SourceJava,
			ID:         tags.testID,
			Expected:   strings.Join(tags.expected, "; "),
			Covers:     filterIDs(tags.covers, e.opts.RequirementFilter, e.opts.Logger, where),
			File:       path,
			Line:       line,
		},
		Package: pkg,
		Class:   class,
		Method:  method,
	}
}

// parenBalance counts '(' minus ')'.
func parenBalance(s string) int {
	return strings.Count(s, "(") - strings.Count(s, ")")
}

// cutCommentEnd returns the text before "*/" and whether it was found.
func cutCommentEnd(s string) (string, bool) {
	if idx := strings.Index(s, "*/"); idx >= 0 {
		return s[:idx], true
	}
	return s, false
}

// stripStar removes the leading "*" decoration of a Javadoc line.
func stripStar(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "*")
	return strings.TrimSpace(s)
}
