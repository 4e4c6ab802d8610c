package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/tracematrix/internal/models"
)

const goSource = `package cart_test

import "testing"

// TestAddItem checks adding.
//
// TestID: TC-GO-1
// Expected: total updated
// Covers: REQ-1, REQ-2
// More prose that is not part of any tag.
func TestAddItem(t *testing.T) {}

// TestID: TC-GO-2
func TestNoCovers(t *testing.T) {}

// Helper docs.
// Covers: REQ-3
func TestUntagged(t *testing.T) {}

// TestID: TC-GO-X
func Testable(t *testing.T) {}

// TestID: TC-GO-M
func (s *suite) TestMethod(t *testing.T) {}

/*
TestID: TC-GO-3
Covers: REQ-4
*/
func Test_Block(t *testing.T) {}
`

func TestGoExtract(t *testing.T) {
	log := &recordingLogger{}
	ex, err := New(models.SourceGo, Options{Logger: log})
	require.NoError(t, err)

	cases, err := ex.Extract("pkg/cart/cart_test.go", strings.NewReader(goSource))
	require.NoError(t, err)
	require.Len(t, cases, 3)

	first, ok := cases[0].(*models.GoTestCase)
	require.True(t, ok, "expected *models.GoTestCase, got %T", cases[0])
	assert.Equal(t, "TC-GO-1", first.TestID())
	assert.Equal(t, "total updated", first.ExpectedResult())
	assert.Equal(t, []string{"REQ-1", "REQ-2"}, first.CoveredRequirements())
	assert.Equal(t, "cart_test", first.Package)
	assert.Equal(t, "TestAddItem", first.Func)
	assert.Equal(t, "pkg/cart", first.Scope())
	assert.Equal(t, lineOf(t, goSource, "func TestAddItem"), first.Line)

	assert.Equal(t, "TC-GO-2", cases[1].TestID())
	assert.Empty(t, cases[1].CoveredRequirements())

	assert.Equal(t, "TC-GO-3", cases[2].TestID())
	assert.Equal(t, []string{"REQ-4"}, cases[2].CoveredRequirements())

	assert.Equal(t, 1, log.debugContaining("TestUntagged has no TestID: tag"))
}

func TestGoExtractParseError(t *testing.T) {
	ex, err := New(models.SourceGo, Options{})
	require.NoError(t, err)

	_, err = ex.Extract("broken_test.go", strings.NewReader("package x\nfunc ("))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse go source")
}

func TestIsTestFunc(t *testing.T) {
	tests := map[string]bool{
		"Test":        true,
		"TestLogin":   true,
		"Test_Login":  true,
		"Test2":       true,
		"Testable":    false,
		"TestMain":    false,
		"BenchmarkX":  false,
		"helperTestX": false,
	}
	for name, want := range tests {
		assert.Equal(t, want, isTestFunc(name), name)
	}
}
