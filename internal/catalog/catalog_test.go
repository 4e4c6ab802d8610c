package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/tracematrix/internal/models"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
	}{
		{"requirements.md", FormatMarkdown},
		{"REQS.MARKDOWN", FormatMarkdown},
		{"catalog.yaml", FormatYAML},
		{"catalog.yml", FormatYAML},
		{"catalog.txt", FormatUnknown},
		{"catalog", FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.filename))
		})
	}
}

func TestNewParserUnknownFormat(t *testing.T) {
	_, err := NewParser(FormatUnknown)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported catalog format")
}

func TestYAMLParser(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []models.Requirement
	}{
		{
			name: "list of entries",
			input: `- id: REQ-1
  description: sign in
- id: REQ-2
  description: sign out
`,
			want: []models.Requirement{{ID: "REQ-1", Description: "sign in"}, {ID: "REQ-2", Description: "sign out"}},
		},
		{
			name:  "mapping keeps file order",
			input: "REQ-9: last\nREQ-1: first\n",
			want:  []models.Requirement{{ID: "REQ-9", Description: "last"}, {ID: "REQ-1", Description: "first"}},
		},
		{
			name: "requirements key",
			input: `requirements:
  - id: R1
    description: one
`,
			want: []models.Requirement{{ID: "R1", Description: "one"}},
		},
		{
			name:  "bare ids",
			input: "- R1\n- R2\n",
			want:  []models.Requirement{{ID: "R1"}, {ID: "R2"}},
		},
		{
			name:  "empty document",
			input: "",
			want:  []models.Requirement{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewYAMLParser().Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestYAMLParserErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		wantMsg string
	}{
		{name: "duplicate", input: "- id: R1\n- id: R1\n", wantErr: ErrDuplicateID, wantMsg: "line 2"},
		{name: "blank", input: "- id: R1\n- description: nothing\n", wantErr: ErrBlankID, wantMsg: "line 2"},
		{name: "scalar root", input: "just text\n", wantMsg: "expected a list or mapping"},
		{name: "nested description", input: "R1:\n  a: b\n", wantMsg: "must be a string"},
		{name: "malformed", input: "- id: [unclosed\n", wantMsg: "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewYAMLParser().Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestMarkdownParser(t *testing.T) {
	input := `# Catalog

Some introduction. Note: prose is ignored.

## Authentication

- **REQ-1**: users sign in with a password
- REQ-2 - sessions expire
  after 30 minutes
- not a requirement
  - REQ-2.1: nested requirement

### REQ-3: audit log

1. ` + "`REQ-4`" + `: numbered item
`
	got, err := NewMarkdownParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []models.Requirement{
		{ID: "REQ-1", Description: "users sign in with a password"},
		{ID: "REQ-2", Description: "sessions expire after 30 minutes"},
		{ID: "REQ-2.1", Description: "nested requirement"},
		{ID: "REQ-3", Description: "audit log"},
		{ID: "REQ-4", Description: "numbered item"},
	}, got)
}

func TestMarkdownParserDuplicate(t *testing.T) {
	input := "- R1: first\n- R2: second\n- R1: again\n"
	_, err := NewMarkdownParser().Parse(strings.NewReader(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Contains(t, err.Error(), "line 3")
	assert.Contains(t, err.Error(), "first at line 1")
}

func TestLoadRequirements(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "reqs.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("R1: one\n"), 0644))
	reqs, err := LoadRequirements(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, []models.Requirement{{ID: "R1", Description: "one"}}, reqs)

	mdPath := filepath.Join(dir, "reqs.md")
	require.NoError(t, os.WriteFile(mdPath, []byte("- R2: two\n"), 0644))
	reqs, err = LoadRequirements(mdPath)
	require.NoError(t, err)
	assert.Equal(t, []models.Requirement{{ID: "R2", Description: "two"}}, reqs)

	_, err = LoadRequirements(filepath.Join(dir, "reqs.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported catalog format")

	_, err = LoadRequirements(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	badPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("- id: R1\n- id: R1\n"), 0644))
	_, err = LoadRequirements(badPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), badPath)
}
