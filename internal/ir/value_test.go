package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmpty(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  bool
	}{
		{"nil", nil, true},
		{"null", Null{}, true},
		{"empty string", String(""), true},
		{"zero string", String("0"), true},
		{"zero int", Int(0), true},
		{"space", String(" "), false},
		{"text", String("abc"), false},
		{"double zero", String("00"), false},
		{"int", Int(-1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Empty(tt.value))
		})
	}
}

func TestIsSet(t *testing.T) {
	assert.False(t, IsSet(nil))
	assert.False(t, IsSet(Null{}))
	assert.True(t, IsSet(String("")))
	assert.True(t, IsSet(Int(0)))
}

func TestToInt(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"42", 42},
		{"  -7", -7},
		{"+3", 3},
		{"12abc", 12},
		{"3.9", 3},
		{"1e3", 1000},
		{".5", 0},
		{"abc", 0},
		{"", 0},
		{"99999999999999999999", math.MaxInt64},
		{"-99999999999999999999", math.MinInt64},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToInt(String(tt.in)))
		})
	}
	assert.Equal(t, int64(5), ToInt(Int(5)))
	assert.Equal(t, int64(0), ToInt(Null{}))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "", ToString(Null{}))
	assert.Equal(t, "x", ToString(String("x")))
	assert.Equal(t, "-12", ToString(Int(-12)))
}

func TestRowGet(t *testing.T) {
	row := Row{"name": String("Tom"), "gone": nil}
	assert.Equal(t, String("Tom"), row.Get("name"))
	assert.Equal(t, Null{}, row.Get("gone"))
	assert.Equal(t, Null{}, row.Get("missing"))
}

func TestVars(t *testing.T) {
	vars := Vars{}
	vars.SetString("a", "1")
	vars.SetInt("b", 2)
	vars.Set("c", nil)

	assert.True(t, vars.Has("a"))
	assert.False(t, vars.Has("c"))
	assert.Equal(t, Null{}, vars.Get("missing"))

	vars.Merge(map[string]Value{"a": Int(9), "d": String("x")})
	assert.Equal(t, Int(9), vars.Get("a"))
	assert.Equal(t, String("x"), vars.Get("d"))
}

func TestMarshalCanonical(t *testing.T) {
	vars := Vars{
		"b":    Int(2),
		"a":    String("<x & y>"),
		"null": Null{},
	}
	data, err := MarshalCanonical(vars)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"<x & y>","b":2,"null":null}`, string(data))

	rows := []Row{{"n": String("é")}}
	data, err = MarshalCanonical(rows)
	require.NoError(t, err)
	assert.Equal(t, "[{\"n\":\"é\"}]", string(data))

	_, err = MarshalCanonical(1.5)
	assert.Error(t, err)
}
