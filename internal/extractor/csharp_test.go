package extractor

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/tracematrix/internal/models"
)

const csharpSource = `using NUnit.Framework;

namespace Shop.Cart.Tests
{
    /// <summary>Cart behaviour.</summary>
    public class CartTests
    {
        /// <summary>
        /// Adds an item.
        /// </summary>
        /// <testId>TC-CART-1</testId>
        /// <expectedResult>the cart total
        /// is updated</expectedResult>
        /// <covers>REQ-10, REQ-11</covers>
        [Test]
        public void AddsItem()
        {
        }

        /// <testId>TC-CART-2</testId>
        /// <covers></covers>
        [TestCase(1), Category("slow")]
        public async Task RemovesItem(int n)
        {
        }

        [Fact]
        public void Untagged() { }
    }
}
`

func TestCSharpExtract(t *testing.T) {
	log := &recordingLogger{}
	ex, err := New(models.SourceCSharp, Options{Logger: log})
	require.NoError(t, err)

	cases, err := ex.Extract(filepath.Join(t.TempDir(), "CartTests.cs"), strings.NewReader(csharpSource))
	require.NoError(t, err)
	require.Len(t, cases, 2)

	first, ok := cases[0].(*models.CSharpTestCase)
	require.True(t, ok, "expected *models.CSharpTestCase, got %T", cases[0])
	assert.Equal(t, "TC-CART-1", first.TestID())
	assert.Equal(t, "the cart total is updated", first.ExpectedResult())
	assert.Equal(t, []string{"REQ-10", "REQ-11"}, first.CoveredRequirements())
	assert.Equal(t, "Shop.Cart.Tests", first.Namespace)
	assert.Equal(t, "CartTests", first.Class)
	assert.Equal(t, "AddsItem", first.Method)
	assert.Equal(t, lineOf(t, csharpSource, "public void AddsItem()"), first.Line)
	assert.Empty(t, first.Assembly)
	assert.Equal(t, "Shop.Cart.Tests", first.Scope(), "scope falls back to the namespace")

	second := cases[1].(*models.CSharpTestCase)
	assert.Equal(t, "TC-CART-2", second.TestID())
	assert.Equal(t, "RemovesItem", second.Method)
	assert.Empty(t, second.CoveredRequirements())

	assert.Equal(t, 1, log.debugContaining("Untagged has no doc comment"))
}

func TestCSharpAssemblyFromProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/Shop.Tests/Shop.Tests.csproj", `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
    <AssemblyName>Shop.Acceptance</AssemblyName>
  </PropertyGroup>
</Project>`)
	writeFile(t, root, "src/Legacy.Tests/Legacy.Tests.csproj", `<Project><PropertyGroup/></Project>`)

	withName := writeFile(t, root, "src/Shop.Tests/Cart/CartTests.cs", csharpSource)
	withoutName := writeFile(t, root, "src/Legacy.Tests/CartTests.cs", csharpSource)

	ex := NewCSharpExtractor(Options{})

	cases, err := ex.ExtractFile(withName)
	require.NoError(t, err)
	require.NotEmpty(t, cases)
	assert.Equal(t, "Shop.Acceptance", cases[0].(*models.CSharpTestCase).Assembly)
	assert.Equal(t, "Shop.Acceptance", cases[0].Scope())

	cases, err = ex.ExtractFile(withoutName)
	require.NoError(t, err)
	require.NotEmpty(t, cases)
	assert.Equal(t, "Legacy.Tests", cases[0].(*models.CSharpTestCase).Assembly)

	// A second lookup is served from the cache.
	assert.Equal(t, "Shop.Acceptance", ex.assemblyFor(withName))
}

func TestCSharpAttributeLists(t *testing.T) {
	tests := []struct {
		attr string
		want bool
	}{
		{"[Test]", true},
		{"[TestMethod]", true},
		{"[Category(\"x\"), Fact]", true},
		{"[Testable]", false},
		{"[Obsolete]", false},
	}
	markers := DefaultMarkers(models.SourceCSharp)
	for _, tt := range tests {
		got := matchesAnyMarker(tt.attr, markers) || attributeListHasMarker(tt.attr, markers)
		assert.Equal(t, tt.want, got, tt.attr)
	}
}

func TestCSharpRequiresTestMarker(t *testing.T) {
	src := `namespace Shop
{
    public class CartTests
    {
        /// <testId>TC-HELPER</testId>
        /// <covers>REQ-9</covers>
        private void Helper() { }

        /// <testId>TC-REAL</testId>
        /// <covers>REQ-1</covers>
        [Fact]
        public void Real() { }

        /// <testId>TC-OBSOLETE</testId>
        [Obsolete]
        public void Old() { }
    }
}`
	log := &recordingLogger{}
	ex, err := New(models.SourceCSharp, Options{Logger: log})
	require.NoError(t, err)

	cases, err := ex.Extract(filepath.Join(t.TempDir(), "CartTests.cs"), strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "TC-REAL", cases[0].TestID())
	assert.Equal(t, []string{"REQ-1"}, cases[0].CoveredRequirements())
	assert.Equal(t, 1, log.debugContaining("Helper has a <testId> tag but no test marker"))
	assert.Equal(t, 1, log.debugContaining("Old has a <testId> tag but no test marker"))
}
