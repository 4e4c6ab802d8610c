package gherkin

import (
	"strings"
	"unicode"
)

type lineKind int

const (
	lineBlank lineKind = iota
	lineComment
	lineTags
	lineFeature
	lineRule
	lineBackground
	lineScenario
	lineExamples
	lineStep
	lineTableRow
	lineDocString
	lineText
)

// StepKeywords lists the recognized step keywords in match order.
var StepKeywords = []string{"Given", "When", "Then", "And", "But", "*"}

type headerKeyword struct {
	text    string
	kind    lineKind
	outline bool
}

// Longer keywords come first so "Scenario Outline:" wins over "Scenario:".
var headerKeywords = []headerKeyword{
	{"Feature:", lineFeature, false},
	{"Rule:", lineRule, false},
	{"Background:", lineBackground, false},
	{"Scenario Outline:", lineScenario, true},
	{"Scenario Template:", lineScenario, true},
	{"Scenario:", lineScenario, false},
	{"Examples:", lineExamples, false},
	{"Scenarios:", lineExamples, false},
	{"Example:", lineScenario, false},
}

var docStringDelimiters = []string{`"""`, "```"}

// token is one classified, trimmed source line.
type token struct {
	kind    lineKind
	line    int
	raw     string
	text    string
	keyword string
	value   string
	outline bool
}

func classify(raw string, line int) token {
	trimmed := strings.TrimSpace(raw)
	tok := token{line: line, raw: raw, text: trimmed}

	switch {
	case trimmed == "":
		tok.kind = lineBlank
		return tok
	case strings.HasPrefix(trimmed, "#"):
		tok.kind = lineComment
		return tok
	case strings.HasPrefix(trimmed, "@"):
		tok.kind = lineTags
		return tok
	case strings.HasPrefix(trimmed, "|"):
		tok.kind = lineTableRow
		return tok
	}

	for _, delim := range docStringDelimiters {
		if strings.HasPrefix(trimmed, delim) {
			tok.kind = lineDocString
			tok.keyword = delim
			tok.value = strings.TrimSpace(trimmed[len(delim):])
			return tok
		}
	}

	for _, kw := range headerKeywords {
		if strings.HasPrefix(trimmed, kw.text) {
			tok.kind = kw.kind
			tok.keyword = strings.TrimSuffix(kw.text, ":")
			tok.value = strings.TrimSpace(trimmed[len(kw.text):])
			tok.outline = kw.outline
			return tok
		}
	}

	for _, kw := range StepKeywords {
		if strings.HasPrefix(trimmed, kw+" ") {
			tok.kind = lineStep
			tok.keyword = kw
			tok.value = strings.TrimSpace(trimmed[len(kw):])
			return tok
		}
	}

	tok.kind = lineText
	return tok
}

// parseTags splits a tag line into tags. Parsing stops at a " #" comment.
func parseTags(tok token) []Tag {
	var tags []Tag
	for _, field := range strings.Fields(tok.text) {
		if strings.HasPrefix(field, "#") {
			break
		}
		if !strings.HasPrefix(field, "@") || field == "@" {
			continue
		}
		tags = append(tags, Tag{Name: field, Line: tok.line})
	}
	return tags
}

// parseCells splits a table row into trimmed cells, honouring the
// \| \\ and \n escapes. Text after the last pipe is ignored.
func parseCells(text string) []string {
	body := strings.TrimPrefix(strings.TrimSpace(text), "|")

	var cells []string
	var cell strings.Builder
	runes := []rune(body)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes):
			next := runes[i+1]
			switch next {
			case 'n':
				cell.WriteRune('\n')
			case '|', '\\':
				cell.WriteRune(next)
			default:
				cell.WriteRune(r)
				cell.WriteRune(next)
			}
			i++
		case r == '|':
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		default:
			cell.WriteRune(r)
		}
	}
	return cells
}

// indentWidth counts the leading whitespace runes of s.
func indentWidth(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			break
		}
		n++
	}
	return n
}

// stripIndent removes up to width leading whitespace runes.
func stripIndent(s string, width int) string {
	runes := []rune(s)
	i := 0
	for i < len(runes) && i < width && unicode.IsSpace(runes[i]) {
		i++
	}
	return string(runes[i:])
}

// languageFromComment returns xx for a "# language: xx" comment.
func languageFromComment(text string) (string, bool) {
	body := strings.TrimSpace(strings.TrimPrefix(text, "#"))
	if !strings.HasPrefix(body, "language:") {
		return "", false
	}
	lang := strings.TrimSpace(strings.TrimPrefix(body, "language:"))
	return lang, lang != ""
}
