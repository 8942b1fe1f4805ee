package shortcode

import (
	"strings"

	"github.com/roach88/catsite/internal/macro"
)

// Attrs are the parsed attributes of a tag: name=value pairs and
// positional values in order.
type Attrs struct {
	Named map[string]string
	Pos   []string
}

// Get returns a named attribute.
func (a Attrs) Get(name string) (string, bool) {
	v, ok := a.Named[name]
	return v, ok
}

// GetOr returns a named attribute, or def when it is absent.
func (a Attrs) GetOr(name, def string) string {
	if v, ok := a.Named[name]; ok {
		return v
	}
	return def
}

// Arg returns the i-th positional attribute.
func (a Attrs) Arg(i int) (string, bool) {
	if i < 0 || i >= len(a.Pos) {
		return "", false
	}
	return a.Pos[i], true
}

// Fill returns a copy where each of names missing from the named
// attributes takes the next positional value; positionals not used up are
// renumbered from zero.
//
//	[tablemacro pets header="H:" V:] // Fill("name", "header", "value")
//	// name=pets header=H: value=V:
func (a Attrs) Fill(names ...string) Attrs {
	out := Attrs{Named: make(map[string]string, len(a.Named)+len(names))}
	for k, v := range a.Named {
		out.Named[k] = v
	}
	i := 0
	for _, name := range names {
		if _, ok := out.Named[name]; ok {
			continue
		}
		if i < len(a.Pos) {
			out.Named[name] = a.Pos[i]
		}
		i++
	}
	if i < len(a.Pos) {
		out.Pos = append(out.Pos, a.Pos[i:]...)
	}
	return out
}

var blankReplacer = strings.NewReplacer("\u00a0", " ", "\u200b", " ")

// ParseAttrs parses the attribute text of a tag:
//
//	name="value" name='value' name=value "value" 'value' value
//
// Names are lower-cased. Values interpret C backslash escapes. Empty
// quoted positionals are dropped, and a value with an unclosed '<' becomes
// empty.
func ParseAttrs(text string) Attrs {
	a := Attrs{Named: make(map[string]string)}
	s := blankReplacer.Replace(text)

	for i := 0; i < len(s); {
		if isSpace(s[i]) {
			i++
			continue
		}
		if name, value, end, ok := namedAttr(s, i); ok {
			a.Named[strings.ToLower(name)] = checkMarkup(macro.Unescape(value))
			i = end
			continue
		}
		if q := s[i]; q == '"' || q == '\'' {
			if n := strings.IndexByte(s[i+1:], q); n >= 0 {
				end := i + n + 2
				if end == len(s) || isSpace(s[end]) {
					if v := s[i+1 : end-1]; v != "" {
						a.Pos = append(a.Pos, checkMarkup(macro.Unescape(v)))
					}
					i = end
					continue
				}
			}
		}
		end := i
		for end < len(s) && !isSpace(s[end]) {
			end++
		}
		a.Pos = append(a.Pos, checkMarkup(macro.Unescape(s[i:end])))
		i = end
	}
	return a
}

// namedAttr recognizes name=value at s[i]. The value ends at space or the
// end of the text.
func namedAttr(s string, i int) (name, value string, end int, ok bool) {
	j := i
	for j < len(s) && isNameByte(s[j]) {
		j++
	}
	if j == i {
		return "", "", 0, false
	}
	name = s[i:j]
	for j < len(s) && isSpace(s[j]) {
		j++
	}
	if j == len(s) || s[j] != '=' {
		return "", "", 0, false
	}
	j++
	for j < len(s) && isSpace(s[j]) {
		j++
	}
	if j == len(s) {
		return "", "", 0, false
	}

	if q := s[j]; q == '"' || q == '\'' {
		n := strings.IndexByte(s[j+1:], q)
		if n < 0 {
			return "", "", 0, false
		}
		end = j + n + 2
		if end < len(s) && !isSpace(s[end]) {
			return "", "", 0, false
		}
		return name, s[j+1 : end-1], end, true
	}

	end = j
	for end < len(s) && !isSpace(s[end]) && s[end] != '"' && s[end] != '\'' {
		end++
	}
	if end < len(s) && !isSpace(s[end]) {
		return "", "", 0, false
	}
	return name, s[j:end], end, true
}

// checkMarkup empties values with a '<' that no '>' follows.
func checkMarkup(v string) string {
	if strings.LastIndexByte(v, '<') > strings.LastIndexByte(v, '>') {
		return ""
	}
	return v
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
