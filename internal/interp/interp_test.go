package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catsite/internal/ir"
	"github.com/roach88/catsite/internal/pipeline"
)

func newInterpolator(vars ir.Vars) *Interpolator {
	return New(pipeline.NewCompiler(nil), pipeline.NewMachine(vars, nil, nil))
}

func kinds(t *Template) []Kind {
	out := make([]Kind, len(t.Tokens))
	for i, tok := range t.Tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestParse(t *testing.T) {
	tpl := Parse("a${x}b${?=y}c${/!}d${/}${+n=${=m|+1}}${+k}${-k}${+k=v}${+k|+2}")
	assert.Equal(t, []Kind{
		Text, Value, Text, If, Text, Else, Text, EndIf,
		Assign, Set, Set, Set, Modify,
	}, kinds(tpl))

	assert.Equal(t, "=y", tpl.Tokens[3].Expr)
	assert.Equal(t, Token{Kind: Assign, Name: "n", Expr: "=m|+1"}, tpl.Tokens[8])
	assert.Equal(t, ir.Int(1), tpl.Tokens[9].Const)
	assert.Equal(t, ir.String(""), tpl.Tokens[10].Const)
	assert.Equal(t, Token{Kind: Set, Name: "k", Const: ir.String("v")}, tpl.Tokens[11])
	assert.Equal(t, Token{Kind: Modify, Name: "k", Expr: "=k|+2"}, tpl.Tokens[12])
}

func TestParse_Setters(t *testing.T) {
	tests := []struct {
		src  string
		want Token
	}{
		{"${+a=b|c}", Token{Kind: Set, Name: "a", Const: ir.String("b|c")}},
		{"${+a|b=c}", Token{Kind: Modify, Name: "a", Expr: "=a|b=c"}},
		{"${-a|url}", Token{Kind: Set, Name: "a", Const: ir.String("")}},
		{"${+a=}", Token{Kind: Set, Name: "a", Const: ir.String("")}},
		{"${!flag}", Token{Kind: If, Expr: "flag", Negative: true}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tpl := Parse(tt.src)
			require.Len(t, tpl.Tokens, 1)
			assert.Equal(t, tt.want, tpl.Tokens[0])
		})
	}
}

func TestParse_PlainText(t *testing.T) {
	tpl := Parse("no directives, ${} or {} here")
	assert.False(t, tpl.HasDirectives())
	assert.Equal(t, []Kind{Text}, kinds(tpl))
	assert.True(t, Parse("${x}").HasDirectives())
}

func TestFields(t *testing.T) {
	tpl := Parse("${name} ${owner->name|url} ${=v} ${?age} ${?=flag} ${+x=${color}} ${name} ${+y=${=v}} ${/}")
	assert.Equal(t, []string{"name", "owner->name", "age", "color"}, tpl.Fields())
}

func TestRender_Rows(t *testing.T) {
	ip := newInterpolator(nil)
	b := Batch{
		Aliases: map[string]string{"name": "n"},
		Rows:    []ir.Row{{"n": ir.String("A")}, {"n": ir.String("B&C")}},
	}
	got := ip.Render(Parse("${=_idx}:${name}${?=_last}.${/!},${/}"), b)
	assert.Equal(t, "0:A,1:B&amp;C.", got)
}

func TestRender_NestedConditionals(t *testing.T) {
	tpl := Parse("${?a}A${?b}B${/!}b${/}${/!}na${/}")
	ip := newInterpolator(nil)
	aliases := map[string]string{"a": "a", "b": "b"}

	tests := []struct {
		name string
		row  ir.Row
		want string
	}{
		{"both", ir.Row{"a": ir.String("1"), "b": ir.String("1")}, "AB"},
		{"a only", ir.Row{"a": ir.String("1")}, "Ab"},
		{"b only", ir.Row{"b": ir.String("1")}, "na"},
		{"a empty string is set", ir.Row{"a": ir.String("")}, "Ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ip.Render(tpl, Batch{Aliases: aliases, Rows: []ir.Row{tt.row}})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_Negative(t *testing.T) {
	tpl := Parse("${!=v}none${/}")
	vars := ir.Vars{}
	ip := newInterpolator(vars)

	assert.Equal(t, "none", ip.Render(tpl, Single()))
	vars.SetInt("v", 1)
	assert.Equal(t, "", ip.Render(tpl, Single()))
}

func TestRender_Assignments(t *testing.T) {
	vars := ir.Vars{}
	ip := newInterpolator(vars)
	tpl := Parse("${+n=5}${=n|+1} ${+k}${=k} ${-k}[${=k}] ${+m=${=n|+10}}${=m} ${+m|+1}${=m}")

	assert.Equal(t, "6 1 [] 1516", ip.Render(tpl, Single()))
	assert.Equal(t, ir.Int(16), vars.Get("m"))
	assert.Equal(t, ir.String("5"), vars.Get("n"))
}

func TestRender_SkippedAssignmentsDoNotRun(t *testing.T) {
	vars := ir.Vars{}
	ip := newInterpolator(vars)

	ip.Render(Parse("${?=off}${+a=1}${+b=${==x}}${/}"), Single())
	assert.False(t, vars.Has("a"))
	assert.False(t, vars.Has("b"))
}

func TestRender_BatchVariables(t *testing.T) {
	ip := newInterpolator(nil)
	b := Batch{
		Rows:  []ir.Row{{}, {}, {}},
		Index: []int64{5, 7, 9},
	}
	got := ip.Render(Parse("${=_idx}/${=_min}-${=_max}#${=_count}${?=_first}F${/} "), b)
	assert.Equal(t, "5/5-9#3F 7/5-9#3 9/5-9#3 ", got)
}

func TestRender_EmptyBatch(t *testing.T) {
	vars := ir.Vars{}
	ip := newInterpolator(vars)

	assert.Equal(t, "", ip.Render(Parse("${x}"), Batch{}))
	assert.Equal(t, ir.Int(0), vars.Get("_count"))
	assert.Equal(t, ir.Value(ir.Null{}), vars.Get("_min"))
}

func TestRender_Store(t *testing.T) {
	ip := newInterpolator(nil)
	b := Batch{Aliases: map[string]string{"name": "n"}, Rows: []ir.Row{{"n": ir.String("A")}}}
	assert.Equal(t, "[A]", ip.Render(Parse("${name|into who}[${=who}]"), b))
}

func TestEval(t *testing.T) {
	ip := newInterpolator(ir.Vars{"x": ir.String("<b>")})
	assert.Equal(t, ir.String("<b>"), ip.Eval("=x"))
	assert.Equal(t, ir.String("none"), ip.Eval("=y|??none"))
	assert.Equal(t, ir.String(""), ip.Eval("field"))
}
