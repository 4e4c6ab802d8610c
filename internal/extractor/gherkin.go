package extractor

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/harrison/tracematrix/internal/gherkin"
	"github.com/harrison/tracematrix/internal/models"
)

// GherkinExtractor turns scenarios into test cases. The scenario name is
// the test id, the Then steps form the expected result, and tags
// (inherited from the feature, rule and examples) name the covered
// requirements.
type GherkinExtractor struct {
	opts Options
}

func (e *GherkinExtractor) Kind() models.SourceKind { return models.SourceGherkin }

func (e *GherkinExtractor) ExtractFile(path string) ([]models.TestCase, error) {
	doc, err := gherkin.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return e.fromDocument(path, doc), nil
}

func (e *GherkinExtractor) Extract(path string, r io.Reader) ([]models.TestCase, error) {
	doc, err := gherkin.ParseReader(r)
	if err != nil {
		var perr *gherkin.ParseError
		if errors.As(err, &perr) {
			perr.Path = path
			return nil, perr
		}
		return nil, fmt.Errorf("read feature file %s: %w", path, err)
	}
	doc.Path = path
	return e.fromDocument(path, doc), nil
}

// Documents converts already parsed documents, for callers that parse once.
func (e *GherkinExtractor) Documents(docs []*gherkin.Document) []models.TestCase {
	var cases []models.TestCase
	for _, doc := range docs {
		cases = append(cases, e.fromDocument(doc.Path, doc)...)
	}
	return cases
}

func (e *GherkinExtractor) fromDocument(path string, doc *gherkin.Document) []models.TestCase {
	if doc.Feature == nil {
		e.opts.Logger.Debugf("%s: no feature; skipped", path)
		return nil
	}
	feature := doc.Feature

	var cases []models.TestCase
	for _, sc := range feature.Scenarios {
		where := fmt.Sprintf("%s:%d", path, sc.Line)
		if strings.TrimSpace(sc.Name) == "" {
			e.opts.Logger.Debugf("%s: unnamed %s; skipped", where, strings.ToLower(sc.Keyword))
			continue
		}

		tags := sc.InheritedTags(feature)
		for _, ex := range sc.Examples {
			tags = append(tags, ex.Tags...)
		}

		rule := ""
		if sc.Rule != nil {
			rule = sc.Rule.Name
		}

		cases = append(cases, &models.GherkinTestCase{
			TestCaseBase: models.TestCaseBase{
				SourceKind: models.SourceGherkin,
				ID:         sc.Name,
				Expected:   expectedOutcome(sc.Steps),
				Covers:     filterIDs(e.requirementTags(tags), e.opts.RequirementFilter, e.opts.Logger, where),
				File:       path,
				Line:       sc.Line,
			},
			FeatureName:  feature.Name,
			Rule:         rule,
			ScenarioLine: sc.Line,
		})
	}
	return cases
}

// requirementTags strips "@" and the configured prefix. Tags lacking the
// prefix are not requirement references.
func (e *GherkinExtractor) requirementTags(tags []gherkin.Tag) []string {
	ids := make([]string, 0, len(tags))
	for _, tag := range tags {
		name := strings.TrimPrefix(tag.Name, "@")
		if e.opts.TagPrefix != "" {
			if !strings.HasPrefix(name, e.opts.TagPrefix) {
				continue
			}
			name = strings.TrimPrefix(name, e.opts.TagPrefix)
		}
		if name != "" {
			ids = append(ids, name)
		}
	}
	return ids
}

// expectedOutcome joins the Then steps, and the And/But steps that
// continue them, with "; ".
func expectedOutcome(steps []*gherkin.Step) string {
	var parts []string
	inThen := false
	for _, st := range steps {
		switch st.Keyword {
		case "Then":
			inThen = true
		case "And", "But", "*":
			if !inThen {
				continue
			}
		default:
			inThen = false
			continue
		}
		parts = append(parts, st.Text)
	}
	return strings.Join(parts, "; ")
}
