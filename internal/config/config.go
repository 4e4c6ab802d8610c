package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harrison/tracematrix/internal/catalog"
	"github.com/harrison/tracematrix/internal/extractor"
	"github.com/harrison/tracematrix/internal/fileutil"
	"github.com/harrison/tracematrix/internal/models"
	"github.com/harrison/tracematrix/internal/wildcard"
)

// DirName is the per-project directory holding config, logs and history.
const DirName = ".tracematrix"

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled records every analyze run in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the sqlite history database
	DBPath string `yaml:"db_path"`
}

// SourceConfig describes one set of test files to extract from.
type SourceConfig struct {
	// Kind is the test source kind (java, csharp, gherkin, go)
	Kind string `yaml:"kind"`

	// Root is the directory the search starts from
	Root string `yaml:"root"`

	// Recursive descends into sub-directories (default true)
	Recursive *bool `yaml:"recursive,omitempty"`

	// MaxDepth limits recursion depth (0 = unlimited)
	MaxDepth int `yaml:"max_depth"`

	// Pattern is the wildcard file name pattern (default depends on Kind)
	Pattern string `yaml:"pattern"`

	// ExcludeDirs lists directory names that are never entered
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// IncludeHidden enters directories starting with "."
	IncludeHidden bool `yaml:"include_hidden"`

	// Vocabulary overrides the documentation tag names
	Vocabulary extractor.Vocabulary `yaml:"vocabulary"`

	// Markers overrides the annotations that mark test methods
	Markers []string `yaml:"markers"`

	// RequirementTagPrefix marks requirement tags in Gherkin files
	RequirementTagPrefix string `yaml:"requirement_tag_prefix"`
}

// Config represents tracematrix configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs will be written
	LogDir string `yaml:"log_dir"`

	// Catalog is the requirement catalog (.yaml, .yml or .md)
	Catalog string `yaml:"catalog"`

	// Justifications is the optional justification file
	Justifications string `yaml:"justifications"`

	// RequirementFilter is an optional wildcard that covered ids must match
	RequirementFilter string `yaml:"requirement_filter"`

	// Report is the optional JSON report path
	Report string `yaml:"report"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`

	// Sources lists the test file sets to analyze
	Sources []SourceConfig `yaml:"sources"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		LogDir:   filepath.Join(DirName, "logs"),
		Catalog:  "requirements.yaml",
		History: HistoryConfig{
			Enabled: true,
			DBPath:  filepath.Join(DirName, "history.db"),
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Fields absent from the file keep their defaults.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .tracematrix/config.yaml in the
// specified directory and resolves relative paths against dir.
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	cfg, err := LoadConfig(filepath.Join(dir, DirName, "config.yaml"))
	if err != nil {
		return nil, err
	}
	cfg.ResolvePaths(dir)
	return cfg, nil
}

// ProjectDir returns the directory relative paths in the config file at
// path are resolved against: the parent of a .tracematrix directory, or
// the file's own directory otherwise.
func ProjectDir(path string) string {
	dir := filepath.Dir(path)
	if filepath.Base(dir) == DirName {
		return filepath.Dir(dir)
	}
	return dir
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(logLevel *string, report *string, noHistory *bool) {
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if report != nil {
		c.Report = *report
	}
	if noHistory != nil && *noHistory {
		c.History.Enabled = false
	}
}

// ResolvePaths makes every relative path absolute against baseDir.
func (c *Config) ResolvePaths(baseDir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	c.LogDir = resolve(c.LogDir)
	c.Catalog = resolve(c.Catalog)
	c.Justifications = resolve(c.Justifications)
	c.Report = resolve(c.Report)
	if c.History.DBPath != ":memory:" {
		c.History.DBPath = resolve(c.History.DBPath)
	}
	for i := range c.Sources {
		c.Sources[i].Root = resolve(c.Sources[i].Root)
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.Catalog == "" {
		return fmt.Errorf("catalog cannot be empty")
	}
	if catalog.DetectFormat(c.Catalog) == catalog.FormatUnknown {
		return fmt.Errorf("catalog %q must be a .yaml, .yml or .md file", c.Catalog)
	}

	if _, err := c.RequirementPattern(); err != nil {
		return err
	}

	if c.History.Enabled && c.History.DBPath == "" {
		return fmt.Errorf("history.db_path cannot be empty when history is enabled")
	}

	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	for i, s := range c.Sources {
		if err := s.validate(); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
	}

	return nil
}

// RequirementPattern compiles RequirementFilter. It returns nil when no
// filter is configured.
func (c *Config) RequirementPattern() (*wildcard.Pattern, error) {
	if c.RequirementFilter == "" {
		return nil, nil
	}
	p, err := wildcard.Compile(c.RequirementFilter)
	if err != nil {
		return nil, fmt.Errorf("invalid requirement_filter: %w", err)
	}
	return p, nil
}

func (s SourceConfig) validate() error {
	kind, err := s.SourceKind()
	if err != nil {
		return err
	}
	if s.Root == "" {
		return fmt.Errorf("root cannot be empty")
	}
	if s.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", s.MaxDepth)
	}
	if _, err := wildcard.Compile(s.pattern(kind)); err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}
	if s.RequirementTagPrefix != "" && kind != models.SourceGherkin {
		return fmt.Errorf("requirement_tag_prefix only applies to gherkin sources")
	}
	return nil
}

// SourceKind parses Kind.
func (s SourceConfig) SourceKind() (models.SourceKind, error) {
	return models.ParseSourceKind(s.Kind)
}

// IsRecursive reports whether the search descends into sub-directories.
func (s SourceConfig) IsRecursive() bool {
	return s.Recursive == nil || *s.Recursive
}

func (s SourceConfig) pattern(kind models.SourceKind) string {
	if s.Pattern != "" {
		return s.Pattern
	}
	return kind.DefaultPattern()
}

// FilterSet builds the validated file search filters for s. A missing or
// non-directory root fails here, before any file is read.
func (s SourceConfig) FilterSet() (*fileutil.FileSearchFilterSet, error) {
	kind, err := s.SourceKind()
	if err != nil {
		return nil, err
	}
	p, err := wildcard.Compile(s.pattern(kind))
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", s.Root, err)
	}
	return fileutil.NewFilterSet(fileutil.FileSearchFilter{
		Root:          s.Root,
		Recursive:     s.IsRecursive(),
		MaxDepth:      s.MaxDepth,
		Pattern:       p,
		ExcludeDirs:   s.ExcludeDirs,
		IncludeHidden: s.IncludeHidden,
	})
}

// ExtractorOptions returns the extractor options for s.
func (s SourceConfig) ExtractorOptions(filter *wildcard.Pattern, log extractor.Logger) extractor.Options {
	return extractor.Options{
		Vocabulary:        s.Vocabulary,
		RequirementFilter: filter,
		Markers:           s.Markers,
		TagPrefix:         s.RequirementTagPrefix,
		Logger:            log,
	}
}
