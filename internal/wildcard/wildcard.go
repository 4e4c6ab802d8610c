// Package wildcard implements the restricted wildcard grammar used for file
// name and requirement identifier filtering.
//
// A pattern is a sequence of literal characters and '*' markers. Each '*'
// matches any run of zero or more characters. Matching is anchored at both
// ends and case-sensitive; there are no other metacharacters.
//
//	p := wildcard.MustCompile("REQ-*-060")
//	p.Match("REQ-FULL-ALG-060") // true
//	p.Match("REQ-FULL-ALG-070") // false
package wildcard

import (
	"errors"
	"fmt"
	"strings"
)

// Marker is the only metacharacter of the grammar.
const Marker = "*"

// ErrInvalidPattern is returned when a pattern cannot be compiled.
var ErrInvalidPattern = errors.New("invalid wildcard pattern")

// Pattern is a compiled wildcard pattern. It is immutable and safe for
// concurrent use.
type Pattern struct {
	raw      string
	segments []string
}

// Compile validates pattern and splits it into literal segments.
// The empty pattern is rejected.
func Compile(pattern string) (*Pattern, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: pattern must not be empty", ErrInvalidPattern)
	}
	return &Pattern{
		raw:      pattern,
		segments: strings.Split(pattern, Marker),
	}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source text of the pattern.
func (p *Pattern) String() string {
	return p.raw
}

// HasWildcard reports whether the pattern contains at least one marker.
func (p *Pattern) HasWildcard() bool {
	return len(p.segments) > 1
}

// Match reports whether candidate matches the whole pattern.
func (p *Pattern) Match(candidate string) bool {
	if len(p.segments) == 1 {
		return candidate == p.raw
	}

	first := p.segments[0]
	last := p.segments[len(p.segments)-1]
	if len(candidate) < len(first)+len(last) {
		return false
	}
	if !strings.HasPrefix(candidate, first) || !strings.HasSuffix(candidate, last) {
		return false
	}

	// Interior segments are consumed at their first occurrence after the
	// previous match point, between the two anchors.
	rest := candidate[len(first) : len(candidate)-len(last)]
	for _, seg := range p.segments[1 : len(p.segments)-1] {
		if seg == "" {
			continue
		}
		idx := strings.Index(rest, seg)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(seg):]
	}
	return true
}

// MatchAny reports whether s matches at least one of patterns.
// Nil entries are ignored.
func MatchAny(patterns []*Pattern, s string) bool {
	for _, p := range patterns {
		if p != nil && p.Match(s) {
			return true
		}
	}
	return false
}

// CompileAll compiles every pattern, failing on the first invalid one.
func CompileAll(patterns []string) ([]*Pattern, error) {
	compiled := make([]*Pattern, 0, len(patterns))
	for _, raw := range patterns {
		p, err := Compile(raw)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, p)
	}
	return compiled, nil
}
