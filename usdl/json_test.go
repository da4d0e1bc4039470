package usdl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utlx-lang/udm/udm"
)

func TestFromJSONPreservesOrderAndLexemes(t *testing.T) {
	in := `{"z":1,"a":2.50,"m":{"k":[true,null,"x"]},"n":1e3}`
	v, err := FromJSON([]byte(in))
	require.NoError(t, err)

	var keys []string
	for _, p := range v.Props() {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"z", "a", "m", "n"}, keys)
	assert.Equal(t, "2.50", v.Get("a").Lexical())
	assert.Equal(t, "1e3", v.Get("n").Lexical())

	out, err := ToJSON(v)
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
}

func TestFromJSONScalars(t *testing.T) {
	cases := []struct {
		in   string
		want *udm.Value
	}{
		{`null`, udm.Null()},
		{`true`, udm.Bool(true)},
		{`"hi"`, udm.String("hi")},
		{`42`, udm.Int(42)},
		{`[]`, udm.Array()},
		{`{}`, udm.Object()},
	}
	for _, tc := range cases {
		v, err := FromJSON([]byte(tc.in))
		require.NoError(t, err, tc.in)
		assert.True(t, udm.Equal(tc.want, v), tc.in)
	}
}

func TestFromJSONErrors(t *testing.T) {
	for _, in := range []string{"", "{", `{"a":}`, `[1 2]`, `1 2`, `{"a":1} extra`} {
		_, err := FromJSON([]byte(in))
		assert.Error(t, err, "input %q", in)
	}
}

func TestToJSONStringQuoting(t *testing.T) {
	v := udm.Object(udm.Prop{Key: `a"b`, Value: udm.String("line\nbreak")})
	out, err := ToJSON(v)
	require.NoError(t, err)
	assert.Equal(t, `{"a\"b":"line\nbreak"}`, string(out))
}

func TestToJSONRejectsNonJSONKinds(t *testing.T) {
	dt, err := udm.DateTime("2024-01-15T10:30:00Z")
	require.NoError(t, err)
	_, err = ToJSON(dt)
	assert.Error(t, err)

	named := udm.ObjectOf([]udm.Prop{{Key: "a", Value: udm.Int(1)}}, nil, "Order", nil)
	_, err = ToJSON(named)
	assert.Error(t, err)

	attributed := udm.ObjectOf(nil, []udm.Attr{{Key: "x", Value: "1"}}, "", nil)
	_, err = ToJSON(attributed)
	assert.Error(t, err)
}
