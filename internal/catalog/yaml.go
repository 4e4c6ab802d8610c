package catalog

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harrison/tracematrix/internal/models"
)

// YAMLParser reads catalogs written as a list of {id, description}
// entries, as an id: description mapping, or as either of those under a
// top-level "requirements" key.
type YAMLParser struct{}

// NewYAMLParser creates a YAML catalog parser.
func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

type yamlEntry struct {
	node *yaml.Node
	req  models.Requirement
}

func (p *YAMLParser) Parse(r io.Reader) ([]models.Requirement, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	root := documentRoot(&doc)
	if root == nil {
		return []models.Requirement{}, nil
	}
	if inner := mappingValue(root, "requirements"); inner != nil {
		root = inner
	}

	entries, err := requirementEntries(root)
	if err != nil {
		return nil, err
	}

	reqs := make([]models.Requirement, len(entries))
	for i, e := range entries {
		reqs[i] = e.req
	}
	if err := checkIDs(reqs, func(i int) string { return fmt.Sprintf("line %d", entries[i].node.Line) }); err != nil {
		return nil, err
	}
	return reqs, nil
}

func requirementEntries(root *yaml.Node) ([]yamlEntry, error) {
	var entries []yamlEntry
	switch root.Kind {
	case yaml.SequenceNode:
		for _, item := range root.Content {
			var req models.Requirement
			if item.Kind == yaml.ScalarNode {
				req.ID = item.Value
			} else if err := item.Decode(&req); err != nil {
				return nil, fmt.Errorf("line %d: invalid requirement entry: %w", item.Line, err)
			}
			req.ID = strings.TrimSpace(req.ID)
			entries = append(entries, yamlEntry{node: item, req: req})
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			key, value := root.Content[i], root.Content[i+1]
			if value.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: description of %q must be a string", value.Line, key.Value)
			}
			entries = append(entries, yamlEntry{
				node: key,
				req:  models.Requirement{ID: strings.TrimSpace(key.Value), Description: value.Value},
			})
		}
	case yaml.ScalarNode:
		if root.Tag == "!!null" {
			return nil, nil
		}
		return nil, fmt.Errorf("line %d: expected a list or mapping of requirements", root.Line)
	default:
		return nil, fmt.Errorf("line %d: expected a list or mapping of requirements", root.Line)
	}
	return entries, nil
}

// documentRoot unwraps the document node.
func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind == 0 {
		return nil
	}
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return nil
		}
		return doc.Content[0]
	}
	return doc
}

// mappingValue returns the value for key when n is a mapping, or nil.
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
