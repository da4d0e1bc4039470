package udm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// num is Number for test literals known to be finite.
func num(f float64) *Value {
	v, err := Number(f)
	if err != nil {
		panic(err)
	}
	return v
}

func TestScalarConstruction(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  ScalarType
	}{
		{"string", "hello", ScalarString},
		{"bool", true, ScalarBool},
		{"int", 42, ScalarNumber},
		{"int64", int64(42), ScalarNumber},
		{"float", 3.14, ScalarNumber},
		{"null", nil, ScalarNull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Scalar(tt.input)
			require.NoError(t, err)
			assert.Equal(t, KindScalar, v.Kind())
			assert.Equal(t, tt.want, v.ScalarType())
		})
	}
}

func TestScalarRejectsNonPrimitive(t *testing.T) {
	_, err := Scalar([]string{"not", "a", "primitive"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scalar value must be")

	_, err = Scalar(map[string]int{"a": 1})
	require.Error(t, err)
}

func TestNumberRejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Number(f)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be finite")

		_, err = Scalar(f)
		require.Error(t, err)
	}
}

func TestNumberLexemePreserved(t *testing.T) {
	tests := []struct {
		lexeme string
		value  float64
		isInt  bool
	}{
		{"28", 28, true},
		{"-7", -7, true},
		{"3.14", 3.14, false},
		{"0.5", 0.5, false},
		{"1e9", 1e9, false},
		{"2.5e-3", 2.5e-3, false},
	}

	for _, tt := range tests {
		t.Run(tt.lexeme, func(t *testing.T) {
			v, err := NumberFromString(tt.lexeme)
			require.NoError(t, err)
			assert.Equal(t, tt.lexeme, v.Lexical())
			n, err := v.AsNumber()
			require.NoError(t, err)
			assert.Equal(t, tt.value, n)
			assert.Equal(t, tt.isInt, v.IsIntegral())
		})
	}

	_, err := NumberFromString("12..3")
	assert.Error(t, err)
}

func TestParsedObjectRejectsReservedKeys(t *testing.T) {
	for _, key := range []string{"properties", "attributes", "metadata"} {
		t.Run(key, func(t *testing.T) {
			_, err := ParsedObject([]Prop{{Key: key, Value: String("x")}}, nil, "", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "reserved keyword")
		})
	}
}

func TestParsedObjectRejectsDuplicatesAndEmptyKeys(t *testing.T) {
	_, err := ParsedObject([]Prop{
		{Key: "a", Value: String("1")},
		{Key: "a", Value: String("2")},
	}, nil, "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = ParsedObject([]Prop{{Key: "", Value: String("1")}}, nil, "", nil)
	require.Error(t, err)
}

func TestLiteralObjectAllowsAnyKey(t *testing.T) {
	// Programmatic literals may use the grammar's reserved words as data;
	// only parsed documents are restricted.
	v := Object(Prop{Key: "properties", Value: Int(1)})
	require.NotNil(t, v.Get("properties"))
}

func TestAttributePropertyNamespaceSeparation(t *testing.T) {
	v := ObjectOf(
		[]Prop{{Key: "id", Value: String("prop-value")}},
		[]Attr{{Key: "id", Value: "123"}},
		"", nil,
	)

	attr, ok := v.GetAttribute("id")
	require.True(t, ok)
	assert.Equal(t, "123", attr)

	prop := v.Get("id")
	require.NotNil(t, prop)
	s, err := prop.AsString()
	require.NoError(t, err)
	assert.Equal(t, "prop-value", s)
}

func TestTemporalConstruction(t *testing.T) {
	tests := []struct {
		name string
		make func(string) (*Value, error)
		good string
		bad  string
	}{
		{"datetime", DateTime, "2024-01-15T10:30:00Z", "2024-01-15"},
		{"datetime-offset", DateTime, "2024-01-15T10:30:00.250+02:00", "not-a-date"},
		{"date", Date, "2024-01-15", "2024-01-15T10:30:00Z"},
		{"local-datetime", LocalDateTime, "2024-01-15T10:30:00", "2024-01-15T10:30:00Z"},
		{"time", TimeOfDay, "10:30:00", "25:99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.make(tt.good)
			require.NoError(t, err)
			assert.Equal(t, tt.good, v.Lexical())

			_, err = tt.make(tt.bad)
			assert.Error(t, err, "expected %q to be rejected", tt.bad)
		})
	}
}

func TestBinaryDeclaredSizeIsMetadata(t *testing.T) {
	// The declared size is carried, not validated against the payload.
	v := Binary([]byte("hello"), EncodingBase64, 999)
	b, err := v.AsBytes()
	require.NoError(t, err)
	assert.Len(t, b, 5)
	assert.Equal(t, 999, v.DeclaredSize())
}

func TestLambdaConstruction(t *testing.T) {
	v, err := Lambda("toUpper", 1)
	require.NoError(t, err)
	assert.Equal(t, "toUpper", v.LambdaID())
	assert.Equal(t, 1, v.Arity())

	_, err = Lambda("", 1)
	assert.Error(t, err)
	_, err = Lambda("f", -1)
	assert.Error(t, err)
}

func TestConstructorsCopyInputs(t *testing.T) {
	elems := []*Value{Int(1), Int(2)}
	arr := Array(elems...)
	elems[0] = Int(99)
	n, err := arr.Index(0).AsNumber()
	require.NoError(t, err)
	assert.Equal(t, float64(1), n)

	data := []byte{1, 2, 3}
	bin := Binary(data, EncodingHex, 3)
	data[0] = 99
	b, _ := bin.AsBytes()
	assert.Equal(t, byte(1), b[0])
}

func TestEqual(t *testing.T) {
	mk := func() *Value {
		return ObjectOf(
			[]Prop{
				{Key: "name", Value: String("Alice")},
				{Key: "scores", Value: Array(Int(1), num(2.5))},
			},
			[]Attr{{Key: "id", Value: "A1"}},
			"Person",
			[]Attr{{Key: "source", Value: "json"}},
		)
	}

	assert.True(t, Equal(mk(), mk()))

	// Property order matters.
	a := Object(Prop{Key: "a", Value: Int(1)}, Prop{Key: "b", Value: Int(2)})
	b := Object(Prop{Key: "b", Value: Int(2)}, Prop{Key: "a", Value: Int(1)})
	assert.False(t, Equal(a, b))

	// Numbers compare by value, not lexeme.
	x, _ := NumberFromString("1e3")
	y, _ := NumberFromString("1000.0")
	assert.True(t, Equal(x, y))

	assert.False(t, Equal(Int(1), String("1")))
	assert.False(t, Equal(Null(), Bool(false)))
}
