package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_Scalars(t *testing.T) {
	cases := []struct {
		name string
		in   Value
		want string
	}{
		{"string", String("hello"), `"hello"`},
		{"int", Int(42), "42"},
		{"negative int", Int(-7), "-7"},
		{"true", Bool(true), "true"},
		{"false", Bool(false), "false"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MarshalCanonical(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	got, err := MarshalCanonical(String("a<b>&c"))
	require.NoError(t, err)
	assert.Equal(t, `"a<b>&c"`, string(got))
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// "e" as precomposed U+00E9 vs decomposed e + U+0301 must serialize
	// identically, otherwise visually identical tags would hash apart.
	composed, err := MarshalCanonical(String("caf\u00e9"))
	require.NoError(t, err)
	decomposed, err := MarshalCanonical(String("cafe\u0301"))
	require.NoError(t, err)
	assert.Equal(t, string(composed), string(decomposed))
}

func TestMarshalCanonical_ObjectKeyOrder(t *testing.T) {
	obj := Object{"b": Int(2), "a": Int(1), "c": Int(3)}
	got, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2,"c":3}`, string(got))
}

func TestMarshalCanonical_ObjectDeterministic(t *testing.T) {
	obj := Object{
		"message": String("Ping Lisa"),
		"at":      String("+30m"),
		"flagged": Bool(true),
		"nested":  Object{"z": Int(1), "y": Int(2)},
	}
	first, err := MarshalCanonical(obj)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(obj)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestMarshalCanonical_Array(t *testing.T) {
	got, err := MarshalCanonical(Array{String("a"), Int(1), Bool(false)})
	require.NoError(t, err)
	assert.Equal(t, `["a",1,false]`, string(got))
}

func TestMarshalCanonical_NilForbidden(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)
}

func TestMarshalCanonical_LineSeparatorsUnescaped(t *testing.T) {
	got, err := MarshalCanonical(String("a\u2028b\u2029c"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(got))
}

func TestMarshalCanonical_BackslashU2028TextStaysEscaped(t *testing.T) {
	// A literal backslash followed by "u2028" is data, not an escape.
	got, err := MarshalCanonical(String(`\u2028`))
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(got))
}
