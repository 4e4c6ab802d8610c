package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/harrison/tracematrix/internal/wildcard"
)

var (
	// ErrRootNotFound is returned when a filter root does not exist.
	ErrRootNotFound = errors.New("search root does not exist")
	// ErrRootNotDirectory is returned when a filter root is not a directory.
	ErrRootNotDirectory = errors.New("search root is not a directory")
	// ErrMissingPattern is returned when a filter has no name pattern.
	ErrMissingPattern = errors.New("search filter has no name pattern")
)

// Warner receives non-fatal problems found while searching.
type Warner interface {
	Warnf(format string, args ...interface{})
}

// FileSearchFilter selects files below Root whose base name matches Pattern.
type FileSearchFilter struct {
	// Root is the directory the search starts from
	Root string
	// Recursive enables descending into sub-directories
	Recursive bool
	// MaxDepth limits recursion depth (0 = unlimited)
	MaxDepth int
	// Pattern is matched against each file's base name
	Pattern *wildcard.Pattern
	// ExcludeDirs lists directory names that are never entered
	ExcludeDirs []string
	// IncludeHidden enters directories whose name starts with "."
	IncludeHidden bool
}

// NewFilter builds a validated filter from a root directory and a wildcard
// pattern string.
func NewFilter(root string, recursive bool, pattern string) (FileSearchFilter, error) {
	p, err := wildcard.Compile(pattern)
	if err != nil {
		return FileSearchFilter{}, fmt.Errorf("filter %s: %w", root, err)
	}
	f := FileSearchFilter{
		Root:      root,
		Recursive: recursive,
		Pattern:   p,
	}
	if err := f.Validate(); err != nil {
		return FileSearchFilter{}, err
	}
	return f, nil
}

// Validate checks that the root exists, is a directory, and that a pattern is set.
func (f FileSearchFilter) Validate() error {
	if f.Pattern == nil {
		return fmt.Errorf("filter %s: %w", f.Root, ErrMissingPattern)
	}
	if f.MaxDepth < 0 {
		return fmt.Errorf("filter %s: max depth must be >= 0, got %d", f.Root, f.MaxDepth)
	}
	info, err := os.Stat(f.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("filter %s: %w", f.Root, ErrRootNotFound)
		}
		return fmt.Errorf("filter %s: %w", f.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("filter %s: %w", f.Root, ErrRootNotDirectory)
	}
	return nil
}

func (f FileSearchFilter) scanOptions(onError func(error)) ScanOptions {
	return ScanOptions{
		Pattern:       f.Pattern,
		Recursive:     f.Recursive,
		MaxDepth:      f.MaxDepth,
		ExcludeDirs:   f.ExcludeDirs,
		IncludeHidden: f.IncludeHidden,
		OnError:       onError,
	}
}

// FileSearchFilterSet is an ordered collection of validated filters.
type FileSearchFilterSet struct {
	filters []FileSearchFilter
}

// NewFilterSet validates every filter and returns the set. The first invalid
// filter aborts construction.
func NewFilterSet(filters ...FileSearchFilter) (*FileSearchFilterSet, error) {
	set := &FileSearchFilterSet{filters: make([]FileSearchFilter, 0, len(filters))}
	for _, f := range filters {
		if err := set.Add(f); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Add validates f and appends it to the set.
func (s *FileSearchFilterSet) Add(f FileSearchFilter) error {
	if err := f.Validate(); err != nil {
		return err
	}
	s.filters = append(s.filters, f)
	return nil
}

// Filters returns a copy of the filters in insertion order.
func (s *FileSearchFilterSet) Filters() []FileSearchFilter {
	out := make([]FileSearchFilter, len(s.filters))
	copy(out, s.filters)
	return out
}

// Len returns the number of filters in the set.
func (s *FileSearchFilterSet) Len() int {
	return len(s.filters)
}

// SearchResult is the merged outcome of running a filter set.
type SearchResult struct {
	// Files contains de-duplicated absolute paths
	Files []string
	// Errors contains non-fatal errors from every filter
	Errors []error
}

// Search runs every filter in set and merges the matched files. Unreadable
// directories, including a root that vanished after validation, are
// reported through warn, recorded in Errors and skipped.
func Search(set *FileSearchFilterSet, warn Warner) (*SearchResult, error) {
	result := &SearchResult{
		Files:  make([]string, 0),
		Errors: make([]error, 0),
	}
	if set == nil {
		return result, nil
	}

	onError := func(err error) {
		if warn != nil {
			warn.Warnf("file search: skipping: %v", err)
		}
	}

	seen := make(map[string]struct{})
	for _, f := range set.filters {
		scan, err := ScanDirectory(f.Root, f.scanOptions(onError))
		if err != nil {
			err = fmt.Errorf("search %s: %w", f.Root, err)
			onError(err)
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Errors = append(result.Errors, scan.Errors...)
		for _, file := range scan.Files {
			key := filepath.Clean(file)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			result.Files = append(result.Files, key)
		}
	}

	sort.Strings(result.Files)
	return result, nil
}
