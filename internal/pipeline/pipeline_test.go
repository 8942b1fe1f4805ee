package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catsite/internal/ir"
)

func ops(seq Sequence) []Opcode {
	out := make([]Opcode, len(seq))
	for i, in := range seq {
		out[i] = in.Op
	}
	return out
}

func TestCompile(t *testing.T) {
	tests := []struct {
		expr string
		want []Opcode
	}{
		{"name", []Opcode{OpGetField}},
		{"=n|+5|max 10", []Opcode{OpGetVar, OpConst, OpAdd, OpConst, OpMax}},
		{"==lit|url", []Opcode{OpString, OpURLEncode}},
		{"x|bogus|url", []Opcode{OpGetField}},
		{"x|%", []Opcode{OpGetField}},
		{"x|%|html", []Opcode{OpGetField, OpHTML}},
		{"x|into y|url", []Opcode{OpGetField, OpStore}},
		{"x|HTM|Url", []Opcode{OpGetField, OpHTML, OpURLEncode}},
		{"x|??=def|()?|? z", []Opcode{OpGetField, OpVar, OpNullReplace, OpConst, OpEmptyReplace, OpConst, OpFullReplace}},
		{"x|every 3|is =k", []Opcode{OpGetField, OpConst, OpEvery, OpVar, OpIs}},
		{"x|match a*|emscolor|link|?", []Opcode{OpGetField, OpMatch, OpEMSColor, OpLink, OpEmptyStop}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			c := NewCompiler(nil)
			assert.Equal(t, tt.want, ops(c.Compile(tt.expr)))
		})
	}
}

func TestCompile_Operands(t *testing.T) {
	c := NewCompiler(nil)

	seq := c.Compile("=n|+ 5 |max =limit")
	require.Len(t, seq, 5)
	assert.Equal(t, "n", seq[0].Name)
	assert.Equal(t, ir.Int(5), seq[1].Value)
	assert.Equal(t, "limit", seq[3].Name)

	seq = c.Compile("x|?? =def")
	assert.Equal(t, ir.String(" =def"), seq[1].Value, "replacement operands are not trimmed")

	seq = c.Compile("x|Remap colors|remap")
	assert.Equal(t, "colors", seq[1].Name)
	assert.Equal(t, "", seq[2].Name)

	seq = c.Compile("x|percent100|PERCENT|percent 5")
	assert.Equal(t, int64(100), seq[1].Divisor)
	assert.Equal(t, 2, seq[1].Digits)
	assert.Equal(t, int64(1), seq[2].Divisor)
	assert.Equal(t, 0, seq[2].Digits)
	assert.Equal(t, 0, seq[3].Digits)

	seq = c.Compile(`x|match bad\`)
	assert.Nil(t, seq[1].Pattern)

	seq = c.Compile("x|%05d")
	assert.Equal(t, ir.String("%05d"), seq[1].Value)
}

func TestCompile_Memoized(t *testing.T) {
	c := NewCompiler(nil)
	first := c.Compile("x|url|html")
	second := c.Compile("x|url|html")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.Len())

	c.Compile("y")
	assert.Equal(t, 2, c.Len())
}

func newTestMachine() (*Machine, Binding) {
	vars := ir.Vars{"n": ir.Int(8), "zero": ir.Int(0)}
	maps := TextMaps{"colors": {"k": "<b>"}}
	m := NewMachine(vars, maps, NewFormatter("."))
	row := Binding{
		Aliases: map[string]string{"name": "__name", "age": "__age", "nul": "__nul", "zero": "__zero"},
		Row: ir.Row{
			"__name": ir.String("Tom & Jerry"),
			"__age":  ir.String("8"),
			"__nul":  ir.Null{},
			"__zero": ir.String("0"),
		},
	}
	return m, row
}

func TestMachine_Value(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"name", "Tom &amp; Jerry"},
		{"name|htm", "Tom &amp; Jerry"},
		{"=n|+5|max 10", "10"},
		{"=n|+ -5", "3"},
		{"missing", ""},
		{"nul", ""},
		{"nul|??none", "none"},
		{"name|?", "Tom &amp; Jerry"},
		{"==0|?|+1", ""},
		{"==|()?dash", "dash"},
		{"==|? filled", "filled"},
		{"==x|? filled", "x"},
		{"age|every 4", "0"},
		{"age|every 3", "1"},
		{"==9|every 3", "0"},
		{"==0|every 3", "1"},
		{"age|every 0", "1"},
		{"==0|? filled", "filled"},
		{"nul|? filled", "filled"},
		{"age|is 8", "1"},
		{"age|is =n", "1"},
		{"==a b|url", "a%20b"},
		{"==ns 22|emscolor", "black silver classic tabby"},
		{"==1234|percent100", "12.34%"},
		{"==7|percent", "7%"},
		{"==abc|match a*", "1"},
		{"==abc|match b*", "0"},
		{"==k|remap colors", "<b>"},
		{"==z|remap colors", "z"},
		{"name|%s!", "Tom &amp; Jerry!"},
		{"age|%03d", "008"},
		{"==2024-03-05|%(date)%d.%m.", "05.03."},
		{"==x|%(nope)", Fail},
		{"==x|%d %d", Fail},
		{"==javascript:alert(1)|link", ""},
		{"==example.com/a b|link", "http://example.com/a%20b"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			m, row := newTestMachine()
			c := NewCompiler(nil)
			got := m.Value(c.Compile(tt.expr), row)
			assert.Equal(t, tt.want, ir.ToString(got))
		})
	}
}

func TestMachine_ValueKeepsIntegers(t *testing.T) {
	m, row := newTestMachine()
	c := NewCompiler(nil)

	assert.Equal(t, ir.Int(13), m.Value(c.Compile("=n|+5"), row))
	m.Vars.SetInt("n", 1)
	assert.Equal(t, ir.Int(6), m.Value(c.Compile("=n|+5|max 10"), row))
}

func TestMachine_Store(t *testing.T) {
	m, row := newTestMachine()
	c := NewCompiler(nil)

	got := m.Value(c.Compile("name|into who|url"), row)
	assert.Equal(t, ir.String(""), got)
	assert.Equal(t, ir.String("Tom &amp; Jerry"), m.Vars.Get("who"))

	assert.True(t, m.Fails(c.Compile("missing|into flag"), row))
	assert.Equal(t, ir.Int(1), m.Vars.Get("flag"))
}

func TestMachine_AmbientFormat(t *testing.T) {
	m, row := newTestMachine()
	c := NewCompiler(nil)

	m.Vars.SetString("%", "<%s>")
	assert.Equal(t, ir.String("<x>"), m.Value(c.Compile("==x"), row))

	m.Vars.SetInt("%", 1)
	assert.Equal(t, ir.String("x"), m.Value(c.Compile("==x"), row), "non-string formats are ignored")
}

func TestMachine_Fails(t *testing.T) {
	tests := []struct {
		expr string
		want bool
	}{
		{"name", false},
		{"nul", true},
		{"missing", true},
		{"zero", false},
		{"=zero", true},
		{"=n", false},
		{"=unset", true},
		{"==0", true},
		{"zero|?", true},
		{"age|is 8", false},
		{"age|is 9", true},
		{"nul|??x", false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			m, row := newTestMachine()
			c := NewCompiler(nil)
			assert.Equal(t, tt.want, m.Fails(c.Compile(tt.expr), row))
		})
	}
}

func TestDecodeEMS(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"a", "blue"},
		{"ns", "black smoke"},
		{"ns 22", "black silver classic tabby"},
		{"n 33 61", "seal point with blue eyes"},
		{"f 03", "black tortie bicolor"},
		{"ay 11", "blue golden shaded"},
		{"a d", "red"},
		{"x", EMSUnknown},
		{"a 99", EMSUnknown},
		{"", EMSUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeEMS(tt.code))
		})
	}
}

func TestMachine_EMSCached(t *testing.T) {
	m, _ := newTestMachine()
	assert.Equal(t, "blue", m.emsColor("a"))
	m.ems["a"] = "cached"
	assert.Equal(t, "cached", m.emsColor("a"))
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `&lt;a href=&quot;x&quot;&gt;&amp; &amp; &#039;q&#039;`,
		EscapeHTML(`<a href="x">&amp; & 'q'`))
	assert.Equal(t, "plain", EscapeHTML("plain"))

	assert.Equal(t, "a%20b%2Bc%2F%C3%A9", EscapeURL("a b+c/é"))

	links := []struct{ in, want string }{
		{"https://ex.com/?a=1&b=2", "https://ex.com/?a=1&#038;b=2"},
		{"/local path", "/local%20path"},
		{"javascript:alert(1)", ""},
		{"example.com", "http://example.com"},
		{"mailto:a@b.c", "mailto:a@b.c"},
		{"  ", ""},
	}
	for _, l := range links {
		assert.Equal(t, l.want, EscapeLink(l.in), l.in)
	}
}
