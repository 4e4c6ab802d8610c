package extractor

import (
	"strings"
)

// docLine is one line of a doc comment with its markers removed.
type docLine struct {
	text string
	line int
}

// docBlock is a doc comment attached to the declaration that follows it.
type docBlock struct {
	lines []docLine
	start int
}

// tagSet is what a doc block says about a test.
type tagSet struct {
	testID   string
	expected []string
	covers   []string
	// extraIDs counts identifier tags after the first one.
	extraIDs int
}

// tagStyle describes how a language spells tag boundaries.
type tagStyle struct {
	// closing returns the terminator of token, or "" when tags end at the
	// next tag or blank line.
	closing func(token string) string
	// startsTag reports whether a continuation line begins a new tag.
	startsTag func(text string) bool
}

// xmlClosing derives </name> from <name>.
func xmlClosing(token string) string {
	if strings.HasPrefix(token, "<") && strings.HasSuffix(token, ">") && len(token) > 2 {
		return "</" + token[1:]
	}
	return ""
}

func noClosing(string) string { return "" }

// collectTags reads the vocabulary tags of a doc block. Values may span
// several lines; continuation lines are joined with a space.
func collectTags(lines []docLine, vocab Vocabulary, style tagStyle) tagSet {
	var tags tagSet

	type openTag struct {
		token   string
		closing string
		parts   []string
	}
	var cur *openTag

	flush := func() {
		if cur == nil {
			return
		}
		value := strings.TrimSpace(strings.Join(cur.parts, " "))
		switch cur.token {
		case vocab.TestID:
			if tags.testID == "" {
				tags.testID = value
			} else {
				tags.extraIDs++
			}
		case vocab.Expected:
			if value != "" {
				tags.expected = append(tags.expected, value)
			}
		case vocab.Covers:
			tags.covers = append(tags.covers, parseIDs(value)...)
		}
		cur = nil
	}

	startsVocab := func(text string) bool {
		for _, tok := range vocab.tokens() {
			if tok != "" && hasToken(text, tok) {
				return true
			}
		}
		return false
	}

	for _, dl := range lines {
		text := strings.TrimSpace(dl.text)

		if cur != nil {
			switch {
			case cur.closing != "":
				if startsVocab(text) {
					flush()
				} else {
					if idx := strings.Index(text, cur.closing); idx >= 0 {
						cur.parts = append(cur.parts, text[:idx])
						flush()
					} else {
						cur.parts = append(cur.parts, text)
					}
					continue
				}
			case text == "" || startsVocab(text) || style.startsTag(text):
				flush()
			default:
				cur.parts = append(cur.parts, text)
				continue
			}
		}

		for _, tok := range vocab.tokens() {
			if tok == "" || !hasToken(text, tok) {
				continue
			}
			rest := text[len(tok):]
			closing := style.closing(tok)
			cur = &openTag{token: tok, closing: closing}
			if closing != "" {
				if idx := strings.Index(rest, closing); idx >= 0 {
					cur.parts = append(cur.parts, rest[:idx])
					flush()
					break
				}
			}
			cur.parts = append(cur.parts, rest)
			break
		}
	}
	flush()

	return tags
}

// hasToken reports whether text starts with token as a whole word.
func hasToken(text, token string) bool {
	if !strings.HasPrefix(text, token) {
		return false
	}
	if len(text) == len(token) {
		return true
	}
	last := token[len(token)-1]
	if last == ':' || last == '>' {
		return true
	}
	next := text[len(token)]
	return next == ' ' || next == '\t'
}

// hasMarker reports whether text starts with marker and the marker is not
// the prefix of a longer identifier.
func hasMarker(text, marker string) bool {
	if !strings.HasPrefix(text, marker) {
		return false
	}
	if len(text) == len(marker) {
		return true
	}
	return !isIdentByte(text[len(marker)])
}

func matchesAnyMarker(text string, markers []string) bool {
	for _, m := range markers {
		if hasMarker(text, m) {
			return true
		}
	}
	return false
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
