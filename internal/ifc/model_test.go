package ifc

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) *Model {
	t.Helper()
	data, err := os.ReadFile("testdata/cube.ifc")
	require.NoError(t, err)
	m, err := Parse(data)
	require.NoError(t, err)
	return m
}

func TestParse_Fixture(t *testing.T) {
	m := loadFixture(t)

	assert.Equal(t, "IFC4", m.Schema)
	assert.Equal(t, "Sample Project", m.ProjectName())
	assert.Equal(t, 3, m.TotalElements())

	types := make([]string, 0, 3)
	for _, p := range m.Products() {
		types = append(types, p.Type)
	}
	assert.Equal(t, []string{"IFCWALL", "IFCDOOR", "IFCWINDOW"}, types)
}

func TestParse_ByGUID(t *testing.T) {
	m := loadFixture(t)

	wall, ok := m.ByGUID("3vB2YO$MX4xv5uCqZZG05x")
	require.True(t, ok)
	assert.Equal(t, "IFCWALL", wall.Type)
	require.NotNil(t, m.Name(wall))
	assert.Equal(t, "North Wall", *m.Name(wall))

	door, ok := m.ByGUID("1kTvXnbbzCWw8lcMd1dR4o")
	require.True(t, ok)
	assert.Nil(t, m.Name(door), "unset Name stays nil, not empty string")

	_, ok = m.ByGUID("0000000000000000000000")
	assert.False(t, ok)
}

func TestParse_UnknownProductSubtype(t *testing.T) {
	src := "#1=IFCCHIMNEY('2O2Fr$t4X7Zf8NOew3FLOH',$,'Chimney',$,$,$,$,'C-01');\n" +
		"#2=IFCSHADINGDEVICE('3vB2YO$MX4xv5uCqZZG05x',$,$,$,$,$,$,'S-01');"
	m, err := Parse([]byte(src))
	require.NoError(t, err)

	// Types outside the known product set still count as products when
	// they carry a valid GlobalId.
	assert.Equal(t, 2, m.TotalElements())
	chimney, ok := m.ByGUID("2O2Fr$t4X7Zf8NOew3FLOH")
	require.True(t, ok)
	assert.Equal(t, "IFCCHIMNEY", chimney.Type)
}

func TestParse_RootedNonProductsExcluded(t *testing.T) {
	// The fixture's project, relationships, and property sets all carry
	// GlobalIds; none of them may leak into the product list.
	m := loadFixture(t)
	for _, p := range m.Products() {
		assert.NotEqual(t, "IFCPROJECT", p.Type)
		assert.NotEqual(t, "IFCPROPERTYSET", p.Type)
		assert.NotEqual(t, "IFCELEMENTQUANTITY", p.Type)
		assert.NotContains(t, p.Type, "IFCREL")
	}
	assert.Equal(t, 3, m.TotalElements())
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("ISO-10303-21;\nHEADER;\nENDSEC;\n"))
	assert.Error(t, err, "file without entity instances")

	_, err = Parse([]byte("#1=IFCWALL('a',"))
	assert.Error(t, err, "truncated instance")
}

func TestProperties_DirectAttributes(t *testing.T) {
	m := loadFixture(t)
	wall, ok := m.ByGUID("3vB2YO$MX4xv5uCqZZG05x")
	require.True(t, ok)

	props := m.Properties(wall)
	assert.Equal(t, "Wall:Generic", props["ObjectType"])
	assert.Equal(t, "W-01", props["Tag"])
	assert.Equal(t, "Load bearing", props["Description"])

	window, ok := m.ByGUID("0jf0kWs3j3uQXKkIzREHPw")
	require.True(t, ok)
	props = m.Properties(window)
	assert.Nil(t, props["ObjectType"])
	assert.Equal(t, "WIN-01", props["Tag"])
}

func TestPropertySets(t *testing.T) {
	m := loadFixture(t)
	wall, ok := m.ByGUID("3vB2YO$MX4xv5uCqZZG05x")
	require.True(t, ok)

	psets := m.PropertySets(wall)
	require.Contains(t, psets, "Pset_WallCommon")
	assert.Equal(t, "REI120", psets["Pset_WallCommon"]["FireRating"])
	assert.Equal(t, true, psets["Pset_WallCommon"]["IsExternal"])

	door, ok := m.ByGUID("1kTvXnbbzCWw8lcMd1dR4o")
	require.True(t, ok)
	assert.Empty(t, m.PropertySets(door))
}

func TestQuantities(t *testing.T) {
	m := loadFixture(t)
	wall, ok := m.ByGUID("3vB2YO$MX4xv5uCqZZG05x")
	require.True(t, ok)

	quantities := m.Quantities(wall)
	assert.Equal(t, Quantity{Value: 5, Unit: "m"}, quantities["Length"])
	assert.Equal(t, Quantity{Value: 12.5, Unit: "m²"}, quantities["GrossArea"])
}

func TestIsGUID(t *testing.T) {
	assert.True(t, IsGUID("2O2Fr$t4X7Zf8NOew3FLOH"))
	assert.False(t, IsGUID("short"))
	assert.False(t, IsGUID("8O2Fr$t4X7Zf8NOew3FLOH"), "leading char out of range")
	assert.False(t, IsGUID("2O2Fr$t4X7Zf8NOew3FL!H"), "character outside alphabet")
}
