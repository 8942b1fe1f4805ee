package shortcode

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echo renders a call as tag|named|positional|body for inspection.
func echo(_ context.Context, c Call) string {
	keys := make([]string, 0, len(c.Attrs.Named))
	for k, v := range c.Attrs.Named {
		keys = append(keys, k+"="+v)
	}
	body := "-"
	if c.Enclosed {
		body = "{" + c.Body + "}"
	}
	return fmt.Sprintf("<%s %v %v %s>", c.Tag, keys, c.Attrs.Pos, body)
}

func TestRegistry_Do(t *testing.T) {
	r := NewRegistry()
	r.Register("cat", echo)
	r.Register("cat-x", echo)
	upper := func(ctx context.Context, c Call) string { return strings.ToUpper(r.Do(ctx, c.Body)) }
	r.Register("up", upper)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no tags", "plain text", "plain text"},
		{"self-contained", "a [cat] b", "a <cat [] [] -> b"},
		{"self-closing", "[cat x /]", "<cat [] [x] ->"},
		{"enclosing", "[cat]in[/cat]!", "<cat [] [] {in}>!"},
		{"first closing wins", "[cat]a[/cat]b[/cat]", "<cat [] [] {a}>b[/cat]"},
		{"unregistered", "[dog] [cats]", "[dog] [cats]"},
		{"hyphenated name", "[cat-x]", "<cat-x [] [] ->"},
		{"escaped", "[[cat a=1]]", "[cat a=1]"},
		{"escaped enclosing", "[[cat]x[/cat]]", "[cat]x[/cat]"},
		{"half escaped", "[[cat]", "[<cat [] [] ->"},
		{"unclosed bracket", "[cat a", "[cat a"},
		{"nested handled by handler", "[up]a[cat]b[/cat][/up]", "A<CAT [] [] {B}>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Do(context.Background(), tt.in))
		})
	}

	assert.True(t, r.Has("cat"))
	assert.False(t, r.Has("dog"))
	assert.Equal(t, []string{"cat", "cat-x", "up"}, r.Tags())
}

func TestFind(t *testing.T) {
	text := `x[macro "{{" "}}" A]A![/macro]y[[macro z]][macro var=v]`
	spans, calls := Find(text, "macro")
	require.Len(t, calls, 2)

	assert.Equal(t, `[macro "{{" "}}" A]A![/macro]`, text[spans[0][0]:spans[0][1]])
	assert.Equal(t, []string{"{{", "}}", "A"}, calls[0].Attrs.Pos)
	assert.Equal(t, "A!", calls[0].Body)

	assert.Equal(t, "[macro var=v]", text[spans[1][0]:spans[1][1]])
	assert.False(t, calls[1].Enclosed)
	assert.Equal(t, "v", calls[1].Attrs.Named["var"])
}

func TestParseAttrs(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		named map[string]string
		pos   []string
	}{
		{"empty", "", map[string]string{}, nil},
		{
			name:  "all forms",
			in:    ` Name="a b" x='c' y=d "e f" 'g' h`,
			named: map[string]string{"name": "a b", "x": "c", "y": "d"},
			pos:   []string{"e f", "g", "h"},
		},
		{
			name:  "spaces around equals",
			in:    `a = "1"  b =2`,
			named: map[string]string{"a": "1", "b": "2"},
		},
		{
			name:  "escapes",
			in:    `sep="\n" "a\tb" c\x41`,
			named: map[string]string{"sep": "\n"},
			pos:   []string{"a\tb", "cA"},
		},
		{
			name:  "empty quoted positional dropped",
			in:    `"" x`,
			named: map[string]string{},
			pos:   []string{"x"},
		},
		{
			name:  "glued quote is bare",
			in:    `a=b"c d`,
			named: map[string]string{},
			pos:   []string{`a=b"c`, "d"},
		},
		{
			name:  "unclosed markup",
			in:    `left="<-" right="<->" "a<"`,
			named: map[string]string{"left": "", "right": "<->"},
			pos:   []string{""},
		},
		{
			name:  "non-breaking space separates",
			in:    "a\u00a0b",
			named: map[string]string{},
			pos:   []string{"a", "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ParseAttrs(tt.in)
			assert.Equal(t, tt.named, a.Named)
			assert.Equal(t, tt.pos, a.Pos)
		})
	}
}

func TestAttrs_Fill(t *testing.T) {
	a := ParseAttrs(`pets header="H:" V: extra more`)
	f := a.Fill("name", "header", "value", "next")

	assert.Equal(t, map[string]string{"name": "pets", "header": "H:", "value": "V:", "next": "extra"}, f.Named)
	assert.Equal(t, []string{"more"}, f.Pos)
	assert.Equal(t, []string{"pets", "V:", "extra", "more"}, a.Pos, "Fill does not modify the receiver")

	short := ParseAttrs("x").Fill("a", "b")
	assert.Equal(t, map[string]string{"a": "x"}, short.Named)
	assert.Empty(t, short.Pos)

	v, ok := f.Get("value")
	assert.True(t, ok)
	assert.Equal(t, "V:", v)
	assert.Equal(t, "dflt", f.GetOr("missing", "dflt"))
	arg, ok := f.Arg(0)
	assert.True(t, ok)
	assert.Equal(t, "more", arg)
	_, ok = f.Arg(1)
	assert.False(t, ok)
}

func TestProtector(t *testing.T) {
	p := NewProtector("cs_", "cs_pSECRET", []string{"vars", "from_table"})
	assert.Equal(t, "cs_pSECRETvars", p.Name("vars"))

	tests := []struct {
		in, want string
	}{
		{"[cs_vars a=1]", "[cs_pSECRETvars a=1]"},
		{"[cs_from_table]x[/cs_from_table]", "[cs_pSECRETfrom_table]x[/cs_pSECRETfrom_table]"},
		{"[cs_varsity]", "[cs_varsity]"},
		{"[cs_expand]", "[cs_expand]"},
		{"[vars]", "[vars]"},
		{"[cs_vars", "[cs_vars"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Apply(tt.in))
		})
	}

	assert.Equal(t, "[x]", NewProtector("", "p1", nil).Apply("[x]"))
}
