package gherkin

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// state is the position of the parser in the document grammar.
type state int

const (
	stateBeforeFeature state = iota
	stateFeatureHeader
	// stateBlockHeader follows a Rule, Background or Scenario line, before
	// its first step.
	stateBlockHeader
	stateSteps
	stateExamples
	stateTable
	stateDocString
)

func (s state) String() string {
	switch s {
	case stateBeforeFeature:
		return "before feature"
	case stateFeatureHeader:
		return "feature header"
	case stateBlockHeader:
		return "background or scenario"
	case stateSteps:
		return "steps"
	case stateExamples:
		return "examples"
	case stateTable:
		return "table"
	case stateDocString:
		return "doc string"
	default:
		return "unknown"
	}
}

type parser struct {
	doc   *Document
	state state

	pendingTags     []Tag
	pendingComments []Comment

	feature    *Feature
	rule       *Rule
	background *Background
	scenario   *Scenario
	examples   *Examples
	step       *Step

	// description receives free text for the current element.
	description *string

	table       *DataTable
	tableReturn state

	docDelim  string
	docMedia  string
	docIndent int
	docStart  int
	docLines  []string
}

// Parse builds a Document from the lines of one file.
func Parse(lines []string) (*Document, error) {
	p := &parser{doc: &Document{}, state: stateBeforeFeature}
	for i, raw := range lines {
		if err := p.consume(raw, i+1); err != nil {
			return nil, err
		}
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

// ParseReader reads all lines from r and parses them.
func ParseReader(r io.Reader) (*Document, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}
	return Parse(lines)
}

// ParseFile parses the file at path. Parse errors carry the path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feature file: %w", err)
	}
	defer f.Close()

	doc, err := ParseReader(f)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = path
			return nil, perr
		}
		return nil, fmt.Errorf("read feature file %s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (p *parser) errorf(line int, format string, args ...interface{}) error {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) consume(raw string, line int) error {
	if p.state == stateDocString {
		p.consumeDocString(raw, line)
		return nil
	}

	tok := classify(raw, line)

	if p.state == stateTable && tok.kind != lineTableRow && tok.kind != lineBlank && tok.kind != lineComment {
		p.table = nil
		p.state = p.tableReturn
	}

	switch tok.kind {
	case lineBlank:
		return nil
	case lineComment:
		p.addComment(tok)
		return nil
	case lineTags:
		p.pendingTags = append(p.pendingTags, parseTags(tok)...)
		return nil
	}

	if p.state == stateBeforeFeature && tok.kind != lineFeature {
		// Anything but a Feature before the feature is tolerated and dropped.
		p.pendingTags = nil
		return nil
	}

	switch tok.kind {
	case lineFeature:
		return p.startFeature(tok)
	case lineRule:
		return p.startRule(tok)
	case lineBackground:
		return p.startBackground(tok)
	case lineScenario:
		return p.startScenario(tok)
	case lineExamples:
		return p.startExamples(tok)
	case lineStep:
		return p.addStep(tok)
	case lineTableRow:
		return p.addTableRow(tok)
	case lineDocString:
		return p.startDocString(tok)
	default:
		p.addText(tok)
		return nil
	}
}

func (p *parser) finish() error {
	if p.state == stateDocString {
		return p.errorf(p.docStart, "unterminated doc string (opened with %s)", p.docDelim)
	}
	if len(p.pendingComments) > 0 {
		if p.feature != nil {
			p.feature.Comments = append(p.feature.Comments, p.pendingComments...)
		} else {
			p.doc.Comments = append(p.doc.Comments, p.pendingComments...)
		}
		p.pendingComments = nil
	}
	return nil
}

func (p *parser) addComment(tok token) {
	c := Comment{Text: tok.text, Line: tok.line}
	if p.state == stateBeforeFeature {
		if len(p.doc.Comments) == 0 && p.doc.Language == "" {
			if lang, ok := languageFromComment(tok.text); ok {
				p.doc.Language = lang
			}
		}
		p.doc.Comments = append(p.doc.Comments, c)
		return
	}
	p.pendingComments = append(p.pendingComments, c)
}

func (p *parser) takeTags() []Tag {
	tags := p.pendingTags
	p.pendingTags = nil
	return tags
}

func (p *parser) takeComments() []Comment {
	comments := p.pendingComments
	p.pendingComments = nil
	return comments
}

func (p *parser) startFeature(tok token) error {
	if p.feature != nil {
		return p.errorf(tok.line, "unexpected %s: a file may define only one feature (first at line %d)", tok.keyword, p.feature.Line)
	}
	p.feature = &Feature{
		Keyword:  tok.keyword,
		Name:     tok.value,
		Tags:     p.takeTags(),
		Comments: p.takeComments(),
		Line:     tok.line,
	}
	p.doc.Feature = p.feature
	p.description = &p.feature.Description
	p.state = stateFeatureHeader
	return nil
}

func (p *parser) resetBlock() {
	p.background = nil
	p.scenario = nil
	p.examples = nil
	p.step = nil
	p.table = nil
}

func (p *parser) startRule(tok token) error {
	p.resetBlock()
	p.rule = &Rule{
		Keyword:  tok.keyword,
		Name:     tok.value,
		Tags:     p.takeTags(),
		Comments: p.takeComments(),
		Line:     tok.line,
	}
	p.feature.Rules = append(p.feature.Rules, p.rule)
	p.description = &p.rule.Description
	p.state = stateBlockHeader
	return nil
}

func (p *parser) startBackground(tok token) error {
	p.resetBlock()
	bg := &Background{
		Keyword:  tok.keyword,
		Name:     tok.value,
		Comments: p.takeComments(),
		Line:     tok.line,
	}
	// Backgrounds carry no tags.
	p.pendingTags = nil

	if p.rule != nil {
		if p.rule.Background != nil {
			return p.errorf(tok.line, "rule %q already has a background (line %d)", p.rule.Name, p.rule.Background.Line)
		}
		p.rule.Background = bg
	} else {
		if p.feature.Background != nil {
			return p.errorf(tok.line, "feature already has a background (line %d)", p.feature.Background.Line)
		}
		p.feature.Background = bg
	}
	p.background = bg
	p.description = &bg.Description
	p.state = stateBlockHeader
	return nil
}

func (p *parser) startScenario(tok token) error {
	p.resetBlock()
	p.scenario = &Scenario{
		Keyword:  tok.keyword,
		Name:     tok.value,
		Outline:  tok.outline,
		Rule:     p.rule,
		Tags:     p.takeTags(),
		Comments: p.takeComments(),
		Line:     tok.line,
	}
	p.feature.Scenarios = append(p.feature.Scenarios, p.scenario)
	p.description = &p.scenario.Description
	p.state = stateBlockHeader
	return nil
}

func (p *parser) startExamples(tok token) error {
	if p.scenario == nil {
		return p.errorf(tok.line, "%s outside of a scenario", tok.keyword)
	}
	p.step = nil
	p.table = nil
	p.examples = &Examples{
		Keyword:  tok.keyword,
		Name:     tok.value,
		Tags:     p.takeTags(),
		Comments: p.takeComments(),
		Line:     tok.line,
	}
	p.scenario.Examples = append(p.scenario.Examples, p.examples)
	p.description = &p.examples.Description
	p.state = stateExamples
	return nil
}

func (p *parser) addStep(tok token) error {
	switch p.state {
	case stateFeatureHeader:
		return p.errorf(tok.line, "step %q outside of a scenario or background", tok.keyword+" "+tok.value)
	case stateExamples:
		return p.errorf(tok.line, "step %q after an Examples block", tok.keyword+" "+tok.value)
	}

	step := &Step{
		Keyword:  tok.keyword,
		Text:     tok.value,
		Comments: p.takeComments(),
		Line:     tok.line,
	}
	p.pendingTags = nil

	switch {
	case p.scenario != nil:
		p.scenario.Steps = append(p.scenario.Steps, step)
		p.description = &p.scenario.Description
	case p.background != nil:
		p.background.Steps = append(p.background.Steps, step)
		p.description = &p.background.Description
	default:
		return p.errorf(tok.line, "step %q outside of a scenario or background", tok.keyword+" "+tok.value)
	}
	p.step = step
	p.state = stateSteps
	return nil
}

func (p *parser) addTableRow(tok token) error {
	row := TableRow{Cells: parseCells(tok.text), Line: tok.line}

	if p.table != nil {
		if len(row.Cells) != p.table.Width() {
			return p.errorf(tok.line, "inconsistent cell count within the table: expected %d cells, found %d", p.table.Width(), len(row.Cells))
		}
		p.table.Rows = append(p.table.Rows, row)
		return nil
	}

	switch {
	case p.state == stateSteps && p.step != nil && p.step.Table == nil && p.step.DocString == nil:
		p.step.Table = &DataTable{Rows: []TableRow{row}}
		p.table = p.step.Table
		p.tableReturn = stateSteps
	case p.state == stateExamples && p.examples != nil && p.examples.Table == nil:
		p.examples.Table = &DataTable{Rows: []TableRow{row}}
		p.table = p.examples.Table
		p.tableReturn = stateExamples
	default:
		return p.errorf(tok.line, "table row outside of a step or Examples block")
	}
	p.state = stateTable
	return nil
}

func (p *parser) startDocString(tok token) error {
	if p.state != stateSteps || p.step == nil || p.step.DocString != nil || p.step.Table != nil {
		return p.errorf(tok.line, "doc string outside of a step")
	}
	p.docDelim = tok.keyword
	p.docMedia = tok.value
	p.docIndent = indentWidth(tok.raw)
	p.docStart = tok.line
	p.docLines = nil
	p.state = stateDocString
	return nil
}

func (p *parser) consumeDocString(raw string, line int) {
	if strings.TrimSpace(raw) == p.docDelim {
		content := strings.Join(p.docLines, "\n")
		if p.docDelim == `"""` {
			content = strings.ReplaceAll(content, `\"\"\"`, `"""`)
		}
		p.step.DocString = &DocString{
			Delimiter: p.docDelim,
			MediaType: p.docMedia,
			Content:   content,
			Line:      p.docStart,
		}
		p.docLines = nil
		p.state = stateSteps
		return
	}
	p.docLines = append(p.docLines, stripIndent(raw, p.docIndent))
}

func (p *parser) addText(tok token) {
	if p.description == nil {
		return
	}
	if *p.description == "" {
		*p.description = tok.text
		return
	}
	*p.description += "\n" + tok.text
}
