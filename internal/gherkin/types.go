// Package gherkin parses line-oriented feature specifications into a typed
// document tree: leading comments, one feature, its rules, background and
// scenarios, steps, tags, data tables and doc strings.
//
// The parser is deliberately tolerant of partially written files. A file with
// no Feature keyword yields a Document whose Feature is nil. Structural
// problems that make the tree ambiguous (a table row whose width differs from
// its header, an unterminated doc string, a step with no scenario) are
// reported as *ParseError carrying the 1-based line number.
package gherkin

import "fmt"

// Comment is a "#" line.
type Comment struct {
	Text string
	Line int
}

// Tag is a single "@name" token. Name keeps the leading "@".
type Tag struct {
	Name string
	Line int
}

// TableRow is one "| a | b |" line.
type TableRow struct {
	Cells []string
	Line  int
}

// DataTable is a block of rows. The first row is the header; every other row
// has the same number of cells.
type DataTable struct {
	Rows []TableRow
}

// Header returns the cells of the first row, or nil for an empty table.
func (t *DataTable) Header() []string {
	if t == nil || len(t.Rows) == 0 {
		return nil
	}
	return t.Rows[0].Cells
}

// Body returns every row after the header.
func (t *DataTable) Body() []TableRow {
	if t == nil || len(t.Rows) < 2 {
		return nil
	}
	return t.Rows[1:]
}

// Width returns the number of header cells.
func (t *DataTable) Width() int {
	return len(t.Header())
}

// DocString is a multi-line text argument delimited by `"""` or "```".
type DocString struct {
	Delimiter string
	MediaType string
	Content   string
	Line      int
}

// Step is a Given/When/Then/And/But/* line with its optional argument.
type Step struct {
	Keyword   string
	Text      string
	Table     *DataTable
	DocString *DocString
	Comments  []Comment
	Line      int
}

// Examples is the data block of a scenario outline.
type Examples struct {
	Keyword     string
	Name        string
	Description string
	Tags        []Tag
	Table       *DataTable
	Comments    []Comment
	Line        int
}

// Background holds steps shared by the scenarios of a feature or rule.
type Background struct {
	Keyword     string
	Name        string
	Description string
	Steps       []*Step
	Comments    []Comment
	Line        int
}

// Rule groups scenarios under a business rule.
type Rule struct {
	Keyword     string
	Name        string
	Description string
	Tags        []Tag
	Background  *Background
	Comments    []Comment
	Line        int
}

// Scenario is a Scenario, Example, Scenario Outline or Scenario Template.
type Scenario struct {
	Keyword     string
	Name        string
	Description string
	Outline     bool
	// Rule is the enclosing rule, or nil for scenarios directly under the feature.
	Rule     *Rule
	Tags     []Tag
	Steps    []*Step
	Examples []*Examples
	Comments []Comment
	Line     int
}

// InheritedTags returns feature, rule and scenario tags in that order,
// without duplicates.
func (s *Scenario) InheritedTags(f *Feature) []Tag {
	var groups [][]Tag
	if f != nil {
		groups = append(groups, f.Tags)
	}
	if s.Rule != nil {
		groups = append(groups, s.Rule.Tags)
	}
	groups = append(groups, s.Tags)

	seen := make(map[string]struct{})
	var out []Tag
	for _, group := range groups {
		for _, tag := range group {
			if _, ok := seen[tag.Name]; ok {
				continue
			}
			seen[tag.Name] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

// Feature is the root element of a specification file.
type Feature struct {
	Keyword     string
	Name        string
	Description string
	Tags        []Tag
	Background  *Background
	Rules       []*Rule
	// Scenarios holds every scenario in document order, including those
	// declared under a rule.
	Scenarios []*Scenario
	Comments  []Comment
	Line      int
}

// Document is the parse result of one file.
type Document struct {
	Path string
	// Language is taken from a leading "# language: xx" comment, if present.
	Language string
	Comments []Comment
	Feature  *Feature
}

// ParseError reports a structural problem at a specific line.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}
