package udm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// claimDoc builds the multi-service document used across navigator tests.
func claimDoc(t *testing.T) *Value {
	t.Helper()
	v, err := Parse(`{
		attributes: {xmlns: "urn:claims"},
		properties: {
			claimId: "CLM-100",
			services: [
				{procedureCode: "99213", description: "Office visit"},
				{procedureCode: "85025", description: "Blood count"}
			]
		}
	}`)
	require.NoError(t, err)
	return v
}

func TestResolveBasicPaths(t *testing.T) {
	doc := claimDoc(t)

	tests := []struct {
		path string
		want string
	}{
		{"claimId", "CLM-100"},
		{"services[0].procedureCode", "99213"},
		{"services[1].description", "Blood count"},
		{"@xmlns", "urn:claims"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := GetScalarValue(doc, tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveAbsentIsNotAnError(t *testing.T) {
	doc := claimDoc(t)

	absent := []string{
		"missing",
		"claimId.nested",
		"services[9].procedureCode", // out of range
		"services[0].missing",
		"@nope",
		"services.@attr",
		"properties.claimId",             // structural keyword never resolves
		"attributes.xmlns",               // same for attributes
		"properties.services[0].procedureCode", // keyword prefix poisons the whole path
	}

	for _, path := range absent {
		t.Run(path, func(t *testing.T) {
			v, err := Resolve(doc, path)
			require.NoError(t, err)
			assert.Nil(t, v)
		})
	}
}

func TestResolveMalformedPathIsAnError(t *testing.T) {
	doc := claimDoc(t)

	malformed := []string{
		"",
		"a..b",
		".a",
		"a.",
		"services[",
		"services[x]",
		"services[-1]",
		"services[]",
		"a.@",
		"@id[0]",
	}

	for _, path := range malformed {
		t.Run(path, func(t *testing.T) {
			_, err := Resolve(doc, path)
			require.Error(t, err)
			var perr *PathError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestInputPrefixTransparency(t *testing.T) {
	doc := claimDoc(t)

	paths := []string{"claimId", "services[0].procedureCode", "@xmlns"}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			direct, err := Resolve(doc, p)
			require.NoError(t, err)
			prefixed, err := Resolve(doc, "$input."+p)
			require.NoError(t, err)
			assert.True(t, Equal(direct, prefixed))
		})
	}

	root, err := Resolve(doc, "$input")
	require.NoError(t, err)
	assert.True(t, Equal(doc, root))
}

func TestResolveAttributeVersusProperty(t *testing.T) {
	v := ObjectOf(
		[]Prop{{Key: "id", Value: String("prop")}},
		[]Attr{{Key: "id", Value: "attr"}},
		"", nil,
	)

	prop, ok := GetScalarValue(v, "id")
	require.True(t, ok)
	assert.Equal(t, "prop", prop)

	attr, ok := GetScalarValue(v, "@id")
	require.True(t, ok)
	assert.Equal(t, "attr", attr)
}

func TestResolveRootArrayIndex(t *testing.T) {
	v, err := Parse(`[{a: 1}, {a: 2}]`)
	require.NoError(t, err)

	got, ok := GetScalarValue(v, "[1].a")
	require.True(t, ok)
	assert.Equal(t, "2", got)
}

func TestGetAllPaths(t *testing.T) {
	doc := claimDoc(t)

	want := []string{
		"claimId",
		"services",
		"services[0]",
		"services[0].procedureCode",
		"services[0].description",
		"services[1]",
		"services[1].procedureCode",
		"services[1].description",
	}
	got := GetAllPaths(doc, false)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestGetAllPathsWithAttributes(t *testing.T) {
	doc := claimDoc(t)
	got := GetAllPaths(doc, true)
	assert.Contains(t, got, "@xmlns")
	assert.Contains(t, got, "services[0].procedureCode")
}

func TestGetAllPathsNeverLeakStructuralKeywords(t *testing.T) {
	// Wrapper sections at every level must vanish from the path space.
	v, err := Parse(`{
		attributes: {a: "1"},
		properties: {
			customer: {
				attributes: {id: "C1"},
				properties: {
					address: {properties: {street: "Main"}}
				}
			}
		}
	}`)
	require.NoError(t, err)

	for _, includeAttrs := range []bool{false, true} {
		for _, p := range GetAllPaths(v, includeAttrs) {
			for _, seg := range splitSegments(p) {
				assert.NotEqual(t, "properties", seg, "leaked in %q", p)
				assert.NotEqual(t, "attributes", seg, "leaked in %q", p)
				assert.NotEqual(t, "metadata", seg, "leaked in %q", p)
			}
		}
	}
}

func TestGetScalarValueCoercion(t *testing.T) {
	dt, err := DateTime("2024-01-15T10:30:00Z")
	require.NoError(t, err)
	fn, err := Lambda("f", 0)
	require.NoError(t, err)
	v := Object(
		Prop{Key: "n", Value: Int(30)},
		Prop{Key: "f", Value: num(2.5)},
		Prop{Key: "b", Value: Bool(true)},
		Prop{Key: "z", Value: Null()},
		Prop{Key: "when", Value: dt},
		Prop{Key: "blob", Value: Binary([]byte("hi"), EncodingBase64, 2)},
		Prop{Key: "fn", Value: fn},
		Prop{Key: "list", Value: Array(Int(1))},
	)

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"n", "30", true},
		{"f", "2.5", true},
		{"b", "true", true},
		{"z", "null", true},
		{"when", "2024-01-15T10:30:00Z", true},
		{"blob", "aGk=", true},
		{"fn", "", false},
		{"list", "", false},
		{"missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := GetScalarValue(v, tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSixLevelNavigation(t *testing.T) {
	input := `{level1: {level2: {level3: {level4: {level5: {level6: {data6: "L6 - Deep value"}}}}}}}`
	v, err := Parse(input)
	require.NoError(t, err)

	// Survives a serialize/parse cycle.
	back, err := Parse(Serialize(v))
	require.NoError(t, err)

	got, ok := GetScalarValue(back, "level1.level2.level3.level4.level5.level6.data6")
	require.True(t, ok)
	assert.Equal(t, "L6 - Deep value", got)
}
