package models

import (
	"fmt"
	"strings"
)

// Requirement is one entry of the requirement catalog.
// Identity is the ID, compared case-sensitively.
type Requirement struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// SourceKind identifies the kind of artifact a test case was mined from.
type SourceKind string

// Supported source kinds
const (
	SourceJava    SourceKind = "java"
	SourceCSharp  SourceKind = "csharp"
	SourceGherkin SourceKind = "gherkin"
	SourceGo      SourceKind = "go"
)

// SourceKinds lists every supported kind in the order results are merged.
var SourceKinds = []SourceKind{SourceJava, SourceCSharp, SourceGherkin, SourceGo}

// ParseSourceKind validates and normalizes a kind name from configuration.
func ParseSourceKind(s string) (SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "java":
		return SourceJava, nil
	case "csharp", "c#", "cs":
		return SourceCSharp, nil
	case "gherkin", "feature", "cucumber":
		return SourceGherkin, nil
	case "go", "golang":
		return SourceGo, nil
	default:
		return "", fmt.Errorf("unknown source kind %q (expected java, csharp, gherkin or go)", s)
	}
}

// DefaultPattern returns the file-name wildcard used when a source
// does not configure one.
func (k SourceKind) DefaultPattern() string {
	switch k {
	case SourceJava:
		return "*Test*.java"
	case SourceCSharp:
		return "*Test*.cs"
	case SourceGherkin:
		return "*.feature"
	case SourceGo:
		return "*_test.go"
	default:
		return "*"
	}
}

// Justification explains why a requirement has no covering test.
type Justification struct {
	Requirement Requirement `json:"requirement"`
	Text        string      `json:"text,omitempty"`
}

// IsDefined reports whether the justification carries anything at all.
// Only defined justifications are emitted.
func (j Justification) IsDefined() bool {
	return j.Requirement.ID != "" || j.Text != ""
}
