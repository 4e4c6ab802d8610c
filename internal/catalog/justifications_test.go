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

func TestParseJustifications(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantIDs []string
	}{
		{name: "mapping", input: "R2: manual check\nR1: covered by audit\n", wantIDs: []string{"R2", "R1"}},
		{
			name: "list",
			input: `- id: R1
  justification: covered by audit
- id: R3
  justification: hardware only
`,
			wantIDs: []string{"R1", "R3"},
		},
		{name: "justifications key", input: "justifications:\n  R1: covered by audit\n", wantIDs: []string{"R1"}},
		{name: "empty", input: "", wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, err := ParseJustifications(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, j.IDs())
			assert.Equal(t, len(tt.wantIDs), j.Len())
		})
	}
}

func TestJustificationsLookup(t *testing.T) {
	j, err := ParseJustifications(strings.NewReader("R1: '  covered by audit  '\n"))
	require.NoError(t, err)

	got, ok := j.Lookup("R1")
	require.True(t, ok)
	assert.Equal(t, models.Justification{Requirement: models.Requirement{ID: "R1"}, Text: "covered by audit"}, got)

	_, ok = j.Lookup("r1")
	assert.False(t, ok, "lookup is case sensitive")

	var nilSet *Justifications
	_, ok = nilSet.Lookup("R1")
	assert.False(t, ok)
	assert.Nil(t, nilSet.IDs())
}

func TestParseJustificationsErrors(t *testing.T) {
	_, err := ParseJustifications(strings.NewReader("- id: R1\n  justification: a\n- id: R1\n  justification: b\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, err = ParseJustifications(strings.NewReader("R1:\n  - a\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a string")

	_, err = ParseJustifications(strings.NewReader("text\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a mapping or list")
}

func TestLoadJustifications(t *testing.T) {
	path := filepath.Join(t.TempDir(), "justifications.yaml")
	require.NoError(t, os.WriteFile(path, []byte("R1: manual\n"), 0644))

	j, err := LoadJustifications(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"R1"}, j.IDs())

	_, err = LoadJustifications(path + ".missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
