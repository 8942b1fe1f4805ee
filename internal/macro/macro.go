// Package macro implements delimiter-triggered text macros.
//
// A macro is registered under its start delimiter. When a page expands it,
// every occurrence of the start delimiter is replaced by the macro body.
// A macro with a stop delimiter takes an argument list: the text up to the
// stop delimiter is split into words (see Args) and the words replace the
// macro's slot markers in the body, by position.
//
//	[macro "{{" "}}" NAME AGE]NAME is AGE years old.[/macro]
//	[expand "{{"]{{Tom 4}} {{"Miss Kitty" 2}}[/expand]
//
// renders "Tom is 4 years old. Miss Kitty is 2 years old.".
package macro

import (
	"errors"
	"regexp"
	"strings"

	"github.com/roach88/catsite/internal/ir"
)

// ErrNoStart is returned when a definition has no start delimiter.
var ErrNoStart = errors.New("macro has no start delimiter")

// Definition is one registered macro.
type Definition struct {
	Start string

	// Stop ends the argument list. Without it the macro takes no
	// arguments and its slots are left empty.
	Stop string

	// Slots are the placeholder texts replaced by arguments, in order.
	Slots []string

	// Var names the variable holding the body, read at each expansion.
	// Empty when the body was given inline.
	Var string

	split *regexp.Regexp
	body  []string
}

// NewDefinition compiles a macro. Empty slot texts are kept for argument
// numbering but never match.
func NewDefinition(start, stop string, slots []string, body, varName string) (*Definition, error) {
	if start == "" {
		return nil, ErrNoStart
	}
	d := &Definition{Start: start, Stop: stop, Slots: slots, Var: varName}

	var alts []string
	for _, s := range slots {
		if s != "" {
			alts = append(alts, regexp.QuoteMeta(s))
		}
	}
	if len(alts) > 0 {
		d.split = regexp.MustCompile("(" + strings.Join(alts, "|") + ")")
	}
	if varName == "" {
		d.body = d.splitBody(body)
	}
	return d, nil
}

// splitBody cuts body at slot markers: even elements are text, odd ones
// slot names.
func (d *Definition) splitBody(body string) []string {
	if d.split == nil {
		return []string{body}
	}
	return splitKeep(d.split, body)
}

// Apply renders the macro with the given argument text. vars supplies
// the body of variable-bodied macros.
func (d *Definition) Apply(args string, vars ir.Vars) string {
	parts := d.body
	if d.Var != "" {
		v := ir.ToString(vars.Get(d.Var))
		if v == "" {
			return ""
		}
		parts = d.splitBody(v)
	}
	if len(parts) < 2 {
		return parts[0]
	}

	values := make(map[string]string, len(d.Slots))
	if len(d.Slots) > 0 {
		words := Args(args)
		for i, slot := range d.Slots {
			if i >= len(words) {
				break
			}
			values[slot] = words[i]
		}
	}

	var b strings.Builder
	for i, p := range parts {
		if i%2 == 0 {
			b.WriteString(p)
		} else {
			b.WriteString(values[p])
		}
	}
	return b.String()
}

// Registry holds the macros of one engine, keyed by start delimiter.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Define registers d, replacing any macro with the same start delimiter.
func (r *Registry) Define(d *Definition) {
	r.defs[d.Start] = d
}

// Lookup finds the macro started by start.
func (r *Registry) Lookup(start string) (*Definition, bool) {
	d, ok := r.defs[start]
	return d, ok
}

// Len is the number of registered macros.
func (r *Registry) Len() int { return len(r.defs) }

// Expand replaces the given start delimiters in text, passes times. A
// delimiter with no macro inserts the variable of that name. A macro with
// a stop delimiter that never appears is left as it is.
func (r *Registry) Expand(text string, starts []string, passes int, vars ir.Vars) string {
	var alts []string
	for _, s := range starts {
		if s != "" {
			alts = append(alts, regexp.QuoteMeta(s))
		}
	}
	if len(alts) == 0 {
		return text
	}
	re := regexp.MustCompile("(" + strings.Join(alts, "|") + ")")

	for ; passes > 0; passes-- {
		text = r.expandOnce(re, text, vars)
	}
	return text
}

func (r *Registry) expandOnce(re *regexp.Regexp, text string, vars ir.Vars) string {
	parts := splitKeep(re, text)
	var b strings.Builder
	for i := 0; i < len(parts); i++ {
		key := parts[i]
		if i%2 == 0 {
			b.WriteString(key)
			continue
		}
		d, ok := r.defs[key]
		if !ok {
			b.WriteString(ir.ToString(vars.Get(key)))
			continue
		}
		args := ""
		if d.Stop != "" {
			inside, outside, closed := strings.Cut(parts[i+1], d.Stop)
			if !closed {
				b.WriteString(key)
				continue
			}
			parts[i+1] = outside
			args = inside
		}
		b.WriteString(d.Apply(args, vars))
	}
	return b.String()
}

// splitKeep splits s around matches of re and keeps the matches: the
// result alternates text and match, starting and ending with text.
func splitKeep(re *regexp.Regexp, s string) []string {
	var out []string
	last := 0
	for _, m := range re.FindAllStringIndex(s, -1) {
		if m[0] == m[1] {
			continue
		}
		out = append(out, s[last:m[0]], s[m[0]:m[1]])
		last = m[1]
	}
	return append(out, s[last:])
}
