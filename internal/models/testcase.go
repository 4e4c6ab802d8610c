package models

// Location points at the source position of a test.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line,omitempty"`
}

// TestCase is a test mined from a source artifact. The set of
// implementations is closed; switch on the concrete type to reach
// kind-specific fields.
type TestCase interface {
	Kind() SourceKind
	TestID() string
	ExpectedResult() string
	// CoveredRequirements returns requirement ids in first-seen order.
	CoveredRequirements() []string
	// Scope is the grouping key test ids must be unique within.
	Scope() string
	Location() Location

	sealed()
}

// TestCaseBase holds the fields every variant shares.
type TestCaseBase struct {
	SourceKind SourceKind `json:"kind"`
	ID         string     `json:"test_id"`
	Expected   string     `json:"expected_result,omitempty"`
	Covers     []string   `json:"covers"`
	File       string     `json:"file"`
	Line       int        `json:"line,omitempty"`
}

func (b *TestCaseBase) Kind() SourceKind              { return b.SourceKind }
func (b *TestCaseBase) TestID() string                { return b.ID }
func (b *TestCaseBase) ExpectedResult() string        { return b.Expected }
func (b *TestCaseBase) CoveredRequirements() []string { return b.Covers }
func (b *TestCaseBase) Location() Location            { return Location{File: b.File, Line: b.Line} }
func (b *TestCaseBase) sealed()                       {}

// JavaTestCase is a JUnit-style test method documented with Javadoc tags.
type JavaTestCase struct {
	TestCaseBase
	Package string `json:"package,omitempty"`
	Class   string `json:"class,omitempty"`
	Method  string `json:"method,omitempty"`
}

// Scope groups Java tests per source file.
func (t *JavaTestCase) Scope() string { return t.File }

// CSharpTestCase is an NUnit/MSTest/xUnit test documented with XML doc comments.
type CSharpTestCase struct {
	TestCaseBase
	Assembly  string `json:"assembly,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Class     string `json:"class,omitempty"`
	Method    string `json:"method,omitempty"`
}

// Scope groups C# tests per assembly, falling back to the namespace and
// then the file when neither is known.
func (t *CSharpTestCase) Scope() string {
	switch {
	case t.Assembly != "":
		return t.Assembly
	case t.Namespace != "":
		return t.Namespace
	default:
		return t.File
	}
}

// GherkinTestCase is a scenario of a feature file.
type GherkinTestCase struct {
	TestCaseBase
	FeatureName  string `json:"feature,omitempty"`
	Rule         string `json:"rule,omitempty"`
	ScenarioLine int    `json:"scenario_line,omitempty"`
}

// Scope groups scenarios per feature file.
func (t *GherkinTestCase) Scope() string { return t.File }

// GoTestCase is a Test function whose doc comment carries coverage tags.
type GoTestCase struct {
	TestCaseBase
	Package string `json:"package,omitempty"`
	// Dir is the package directory.
	Dir  string `json:"dir,omitempty"`
	Func string `json:"func,omitempty"`
}

// Scope groups Go tests per package directory.
func (t *GoTestCase) Scope() string {
	if t.Dir != "" {
		return t.Dir
	}
	return t.File
}
