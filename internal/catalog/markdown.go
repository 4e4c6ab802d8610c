package catalog

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/harrison/tracematrix/internal/models"
)

// requirementLineRe matches "REQ-1: text" and "REQ-1 - text". The id must
// contain a digit so ordinary prose such as "Note: ..." is not taken.
var requirementLineRe = regexp.MustCompile(`^([A-Za-z][\w.\-]*\d[\w.\-]*)\s*(?::|\s-\s)\s*(.*)$`)

// MarkdownParser reads requirements from list items and headings of a
// Markdown document:
//
//	## Authentication
//	- **REQ-1**: users sign in with a password
//	- REQ-2 - sessions expire after 30 minutes
//	### REQ-3: audit log
type MarkdownParser struct {
	markdown goldmark.Markdown
}

// NewMarkdownParser creates a Markdown catalog parser.
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{
		markdown: goldmark.New(),
	}
}

type markdownEntry struct {
	line int
	req  models.Requirement
}

func (p *MarkdownParser) Parse(r io.Reader) ([]models.Requirement, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	doc := p.markdown.Parser().Parse(text.NewReader(content))

	var entries []markdownEntry
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		var block ast.Node
		switch node := n.(type) {
		case *ast.Heading:
			block = node
		case *ast.ListItem:
			block = node.FirstChild()
		default:
			return ast.WalkContinue, nil
		}
		if block == nil {
			return ast.WalkContinue, nil
		}

		m := requirementLineRe.FindStringSubmatch(strings.TrimSpace(inlineText(block, content)))
		if m != nil {
			entries = append(entries, markdownEntry{
				line: lineNumber(block, content),
				req:  models.Requirement{ID: m[1], Description: strings.TrimSpace(m[2])},
			})
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	reqs := make([]models.Requirement, len(entries))
	for i, e := range entries {
		reqs[i] = e.req
	}
	if err := checkIDs(reqs, func(i int) string { return fmt.Sprintf("line %d", entries[i].line) }); err != nil {
		return nil, err
	}
	return reqs, nil
}

// inlineText concatenates the text of n's inline descendants, dropping
// emphasis and code markup.
func inlineText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(node ast.Node) {
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Segment.Value(source))
				if t.SoftLineBreak() || t.HardLineBreak() {
					buf.WriteByte(' ')
				}
			case *ast.String:
				buf.Write(t.Value)
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return buf.String()
}

// lineNumber returns the 1-based source line of a block node.
func lineNumber(n ast.Node, source []byte) int {
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return 0
	}
	return bytes.Count(source[:lines.At(0).Start], []byte("\n")) + 1
}
