package extractor

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"path/filepath"
	"strings"

	"github.com/harrison/tracematrix/internal/models"
)

// Go tags never continue onto the next comment line.
var goStyle = tagStyle{
	closing:   noClosing,
	startsTag: func(string) bool { return true },
}

// GoExtractor mines Test functions whose doc comment carries coverage tags:
//
//	// TestLogin checks the happy path.
//	//
//	// TestID: TC-LOGIN-1
//	// Expected: the user is signed in
//	// Covers: REQ-1, REQ-2
//	func TestLogin(t *testing.T) { ... }
type GoExtractor struct {
	opts Options
}

func (e *GoExtractor) Kind() models.SourceKind { return models.SourceGo }

func (e *GoExtractor) ExtractFile(path string) ([]models.TestCase, error) {
	return extractFile(path, e.Extract)
}

func (e *GoExtractor) Extract(path string, r io.Reader) ([]models.TestCase, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read go source: %w", err)
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse go source: %w", err)
	}

	var cases []models.TestCase
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil || !isTestFunc(fn.Name.Name) {
			continue
		}
		line := fset.Position(fn.Pos()).Line
		where := fmt.Sprintf("%s:%d", path, line)
		if fn.Doc == nil {
			e.opts.Logger.Debugf("%s: %s has no doc comment; skipped", where, fn.Name.Name)
			continue
		}

		tags := collectTags(goDocLines(fset, fn.Doc), e.opts.Vocabulary, goStyle)
		if tags.testID == "" {
			e.opts.Logger.Debugf("%s: %s has no %s tag; skipped", where, fn.Name.Name, e.opts.Vocabulary.TestID)
			continue
		}

		cases = append(cases, &models.GoTestCase{
			TestCaseBase: models.TestCaseBase{
				SourceKind: models.SourceGo,
				ID:         tags.testID,
				Expected:   strings.Join(tags.expected, "; "),
				Covers:     filterIDs(tags.covers, e.opts.RequirementFilter, e.opts.Logger, where),
				File:       path,
				Line:       line,
			},
			Package: f.Name.Name,
			Dir:     filepath.Dir(path),
			Func:    fn.Name.Name,
		})
	}

	return cases, nil
}

// isTestFunc matches TestXxx but not Testable or TestMain.
func isTestFunc(name string) bool {
	if !strings.HasPrefix(name, "Test") || name == "TestMain" {
		return false
	}
	if len(name) == len("Test") {
		return true
	}
	c := name[len("Test")]
	return !(c >= 'a' && c <= 'z')
}

// goDocLines splits a comment group into lines with markers removed.
func goDocLines(fset *token.FileSet, group *ast.CommentGroup) []docLine {
	var lines []docLine
	for _, c := range group.List {
		line := fset.Position(c.Pos()).Line
		text := c.Text
		if strings.HasPrefix(text, "//") {
			lines = append(lines, docLine{text: strings.TrimPrefix(text, "//"), line: line})
			continue
		}
		body := strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
		for i, l := range strings.Split(body, "\n") {
			lines = append(lines, docLine{text: stripStar(l), line: line + i})
		}
	}
	return lines
}
