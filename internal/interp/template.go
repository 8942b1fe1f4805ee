// Package interp renders ${...} templates against batches of result rows.
//
// A template is split once into plain text and directive tokens:
//
//	${field}, ${ref->field}     field value, HTML-escaped
//	${=var}                     variable value, raw
//	${+var}, ${+var=text}       set a variable to 1 or to text
//	${+var=${expr}}             set a variable from a pipeline
//	${+var|pipe}                rewrite a variable through a pipeline
//	${-var}                     clear a variable
//	${?expr} ${!expr}           conditional blocks, ${/!} else, ${/} end
//
// Every value directive may carry a pipeline of transforms, see package
// pipeline. The template is rendered once per row; conditionals nest.
package interp

import (
	"regexp"
	"strings"

	"github.com/roach88/catsite/internal/ir"
)

// directiveRE matches a plain directive or the nested assignment form.
var directiveRE = regexp.MustCompile(`\$\{([^{}]+)\}|\$\{\+([^{}=]+)=\$\{([^-+?!/][^{}]*)\}\}`)

// Kind classifies a template token.
type Kind int

const (
	Text   Kind = iota // literal text
	Value              // ${expr}
	Assign             // ${+name=${expr}}
	Set                // ${+name}, ${+name=text}, ${-name}
	Modify             // ${+name|pipe}
	If                 // ${?expr}, ${!expr}
	Else               // ${/!}
	EndIf              // ${/...}
)

var kindNames = [...]string{"Text", "Value", "Assign", "Set", "Modify", "If", "Else", "EndIf"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// Token is one piece of a parsed template.
type Token struct {
	Kind Kind

	// Text is the literal of a Text token.
	Text string

	// Expr is the pipeline of Value, Assign, Modify and If tokens.
	Expr string

	// Name is the variable written by Assign, Set and Modify.
	Name string

	// Const is the value stored by Set.
	Const ir.Value

	// Negative marks ${!expr}.
	Negative bool
}

// Template is a parsed template. It is immutable and may be rendered many
// times.
type Template struct {
	Tokens []Token
}

// Parse splits content into tokens.
func Parse(content string) *Template {
	t := &Template{}
	pos := 0
	for _, m := range directiveRE.FindAllStringSubmatchIndex(content, -1) {
		if m[0] > pos {
			t.Tokens = append(t.Tokens, Token{Kind: Text, Text: content[pos:m[0]]})
		}
		pos = m[1]
		if m[2] < 0 {
			t.Tokens = append(t.Tokens, Token{
				Kind: Assign,
				Name: content[m[4]:m[5]],
				Expr: content[m[6]:m[7]],
			})
			continue
		}
		t.Tokens = append(t.Tokens, directive(content[m[2]:m[3]]))
	}
	if pos < len(content) {
		t.Tokens = append(t.Tokens, Token{Kind: Text, Text: content[pos:]})
	}
	return t
}

func directive(key string) Token {
	switch key[0] {
	case '/':
		if strings.HasPrefix(key, "/!") {
			return Token{Kind: Else}
		}
		return Token{Kind: EndIf}
	case '?', '!':
		return Token{Kind: If, Expr: key[1:], Negative: key[0] == '!'}
	case '+', '-':
		return setter(key)
	default:
		return Token{Kind: Value, Expr: key}
	}
}

// setter parses ${+...} and ${-...}. The name ends at the first "=" after
// the sign; a "|" inside the name turns ${+...} into an in-place rewrite.
func setter(key string) Token {
	set := key[0] == '+'
	eq := strings.IndexByte(key[1:], '=')
	name := key[1:]
	if eq >= 0 {
		name = key[1 : eq+1]
	}
	if p := strings.IndexByte(name, '|'); p >= 0 {
		name = name[:p]
		if set {
			return Token{Kind: Modify, Name: name, Expr: "=" + key[1:]}
		}
	}

	var v ir.Value
	switch {
	case !set:
		v = ir.String("")
	case eq < 0:
		v = ir.Int(1)
	default:
		v = ir.String(key[eq+2:])
	}
	return Token{Kind: Set, Name: name, Const: v}
}

// HasDirectives reports whether the template contains anything but text.
func (t *Template) HasDirectives() bool {
	for _, tok := range t.Tokens {
		if tok.Kind != Text {
			return true
		}
	}
	return false
}

// Fields returns the distinct field references the template reads, in
// order of first use. Variable reads and transforms are not fields.
func (t *Template) Fields() []string {
	var out []string
	seen := make(map[string]bool)
	for _, tok := range t.Tokens {
		switch tok.Kind {
		case Value, Assign, If:
		default:
			continue
		}
		if strings.HasPrefix(tok.Expr, "=") {
			continue
		}
		ref, _, _ := strings.Cut(tok.Expr, "|")
		if !seen[ref] {
			seen[ref] = true
			out = append(out, ref)
		}
	}
	return out
}
