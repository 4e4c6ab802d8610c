// Package catalog loads the requirement catalog and the justifications
// recorded for untested requirements.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/tracematrix/internal/models"
)

// ErrDuplicateID is returned when an id appears twice in one file.
var ErrDuplicateID = errors.New("duplicate requirement id")

// ErrBlankID is returned for an entry without an id.
var ErrBlankID = errors.New("blank requirement id")

// Format represents the format of a catalog file
type Format int

const (
	// FormatUnknown represents an unknown or unsupported file format
	FormatUnknown Format = iota
	// FormatMarkdown represents a Markdown (.md, .markdown) catalog
	FormatMarkdown
	// FormatYAML represents a YAML (.yaml, .yml) catalog
	FormatYAML
)

// String returns the string representation of the Format
func (f Format) String() string {
	switch f {
	case FormatMarkdown:
		return "markdown"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// Parser reads a requirement catalog.
type Parser interface {
	Parse(r io.Reader) ([]models.Requirement, error)
}

// DetectFormat detects the catalog format from the file extension:
//   - .md, .markdown -> FormatMarkdown
//   - .yaml, .yml -> FormatYAML
//   - all others -> FormatUnknown
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// NewParser creates a parser for the specified format.
func NewParser(format Format) (Parser, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownParser(), nil
	case FormatYAML:
		return NewYAMLParser(), nil
	default:
		return nil, fmt.Errorf("unsupported catalog format: %v", format)
	}
}

// LoadRequirements reads the catalog at path, choosing the parser by
// extension. Ids must be non-blank and unique.
func LoadRequirements(path string) ([]models.Requirement, error) {
	parser, err := NewParser(DetectFormat(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	reqs, err := parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return reqs, nil
}

// checkIDs enforces the blank and uniqueness rules. where describes each
// entry for error messages.
func checkIDs(reqs []models.Requirement, where func(i int) string) error {
	seen := make(map[string]int, len(reqs))
	for i, r := range reqs {
		if strings.TrimSpace(r.ID) == "" {
			return fmt.Errorf("%s: %w", where(i), ErrBlankID)
		}
		if first, dup := seen[r.ID]; dup {
			return fmt.Errorf("%s: %w %q (first at %s)", where(i), ErrDuplicateID, r.ID, where(first))
		}
		seen[r.ID] = i
	}
	return nil
}
