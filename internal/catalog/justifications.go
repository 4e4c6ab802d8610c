package catalog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harrison/tracematrix/internal/models"
)

// Justifications holds the justification texts keyed by requirement id.
// It satisfies correlate.JustificationLookup and can enumerate its ids.
type Justifications struct {
	order []string
	byID  map[string]models.Justification
}

// NewJustifications builds a set from id/text pairs in the given order.
func NewJustifications(entries ...models.Justification) *Justifications {
	j := &Justifications{byID: make(map[string]models.Justification)}
	for _, e := range entries {
		if _, ok := j.byID[e.Requirement.ID]; !ok {
			j.order = append(j.order, e.Requirement.ID)
		}
		j.byID[e.Requirement.ID] = e
	}
	return j
}

// Lookup returns the justification for id.
func (j *Justifications) Lookup(id string) (models.Justification, bool) {
	if j == nil {
		return models.Justification{}, false
	}
	v, ok := j.byID[id]
	return v, ok
}

// IDs lists the justified ids in file order.
func (j *Justifications) IDs() []string {
	if j == nil {
		return nil
	}
	return append([]string(nil), j.order...)
}

// Len is the number of justifications.
func (j *Justifications) Len() int {
	if j == nil {
		return 0
	}
	return len(j.order)
}

type justificationEntry struct {
	ID            string `yaml:"id"`
	Justification string `yaml:"justification"`
}

// LoadJustifications reads a YAML file holding either an id: text mapping
// or a list of {id, justification} entries.
func LoadJustifications(path string) (*Justifications, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open justifications: %w", err)
	}
	defer f.Close()

	j, err := ParseJustifications(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse justifications %s: %w", path, err)
	}
	return j, nil
}

// ParseJustifications reads justifications from r.
func ParseJustifications(r io.Reader) (*Justifications, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	root := documentRoot(&doc)
	if root == nil || (root.Kind == yaml.ScalarNode && root.Tag == "!!null") {
		return NewJustifications(), nil
	}
	if inner := mappingValue(root, "justifications"); inner != nil {
		root = inner
	}

	var entries []models.Justification
	var lines []int
	switch root.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			key, value := root.Content[i], root.Content[i+1]
			if value.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: justification of %q must be a string", value.Line, key.Value)
			}
			entries = append(entries, justification(key.Value, value.Value))
			lines = append(lines, key.Line)
		}
	case yaml.SequenceNode:
		for _, item := range root.Content {
			var e justificationEntry
			if err := item.Decode(&e); err != nil {
				return nil, fmt.Errorf("line %d: invalid justification entry: %w", item.Line, err)
			}
			entries = append(entries, justification(e.ID, e.Justification))
			lines = append(lines, item.Line)
		}
	default:
		return nil, fmt.Errorf("line %d: expected a mapping or list of justifications", root.Line)
	}

	reqs := make([]models.Requirement, len(entries))
	for i, e := range entries {
		reqs[i] = e.Requirement
	}
	if err := checkIDs(reqs, func(i int) string { return fmt.Sprintf("line %d", lines[i]) }); err != nil {
		return nil, err
	}
	return NewJustifications(entries...), nil
}

func justification(id, text string) models.Justification {
	return models.Justification{
		Requirement: models.Requirement{ID: strings.TrimSpace(id)},
		Text:        strings.TrimSpace(text),
	}
}
