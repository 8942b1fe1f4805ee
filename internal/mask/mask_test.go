package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		mask string
		want string
	}{
		{"abc", `(?s)^abc$`},
		{"a*c", `(?s)^a.*c$`},
		{"a?c", `(?s)^a.c$`},
		{"a??c", `(?s)^a.{2}c$`},
		{"a?*c", `(?s)^a.+c$`},
		{"a*??*c", `(?s)^a.{2,}c$`},
		{"a.b", `(?s)^a\.b$`},
		{`a\*`, `(?s)^a\*$`},
		{"[abc]", `(?s)^[abc]$`},
		{"[!abc]", `(?s)^[^abc]$`},
		{"[^a-z]x", `(?s)^[^a-z]x$`},
		{"[]a]", `(?s)^[\]a]$`},
		{"[!]a]", `(?s)^[^\]a]$`},
		{"[a-]", `(?s)^[a\-]$`},
		{"[-a]", `(?s)^[\-a]$`},
		{"[a-c-e]", `(?s)^[a-c\-e]$`},
		{"[[:alpha:]_]", `(?s)^[[:alpha:]_]$`},
		{"[[:^digit:]]", `(?s)^[[:^digit:]]$`},
		{"[[.x.]y]", `(?s)^[xy]$`},
		{"[a-[.z.]]", `(?s)^[a-z]$`},
		{"*[ab", `(?s)^.*\[ab$`},
		{"[[:bogus:]]", `(?s)^\[[:bogus:]\]$`},
		{"[[.xy.]]", `(?s)^\[[.xy.]\]$`},
		{"a[", `(?s)^a\[$`},
	}
	for _, tt := range tests {
		t.Run(tt.mask, func(t *testing.T) {
			got, err := Translate(tt.mask)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslate_Invalid(t *testing.T) {
	for _, m := range []string{`abc\`, `[a\`, `*\`} {
		t.Run(m, func(t *testing.T) {
			_, err := Translate(m)
			assert.ErrorIs(t, err, ErrInvalidMask)
		})
	}
}

func TestCompile_GlobSemantics(t *testing.T) {
	tests := []struct {
		mask    string
		matches []string
		rejects []string
	}{
		{"a*c", []string{"abc", "ac", "a\nc", "abbbc"}, []string{"ab", "xabc", "abcx"}},
		{"?", []string{"a", "é"}, []string{"", "ab"}},
		{"??*", []string{"ab", "abc"}, []string{"a"}},
		{"[a-c]x", []string{"ax", "cx"}, []string{"dx", "x"}},
		{"[!a-c]x", []string{"dx", "éx"}, []string{"ax"}},
		{"[[:digit:]]*", []string{"1", "9abc"}, []string{"a1"}},
		{"Ж*", []string{"Жук"}, []string{"жук"}},
		{"*[ab", []string{"x[ab"}, []string{"xa"}},
	}
	for _, tt := range tests {
		t.Run(tt.mask, func(t *testing.T) {
			re, err := Compile(tt.mask)
			require.NoError(t, err)
			for _, s := range tt.matches {
				assert.True(t, re.MatchString(s), "%q should match %q", tt.mask, s)
			}
			for _, s := range tt.rejects {
				assert.False(t, re.MatchString(s), "%q should not match %q", tt.mask, s)
			}
		})
	}
}

func TestCache(t *testing.T) {
	c := NewCache()

	first := c.Get("a*")
	require.NotNil(t, first)
	assert.Same(t, first, c.Get("a*"))

	assert.Nil(t, c.Get(`bad\`))
	assert.False(t, c.Match(`bad\`, `bad\`))
	assert.True(t, c.Match("a*", "abc"))
	assert.False(t, c.Match("[z-a]", "b"), "an uncompilable range matches nothing")
}
