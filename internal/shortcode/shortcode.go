// Package shortcode expands bracketed tags in page text.
//
// Syntax:
//
//	[tag attrs]              self-contained
//	[tag attrs /]            self-closing
//	[tag attrs]body[/tag]    enclosing; the body ends at the first [/tag]
//	[[tag attrs]]            escaped; renders as [tag attrs]
//
// Only registered tags are recognized; anything else is plain text. Tag
// names consist of letters, digits, '_' and '-'.
package shortcode

import (
	"context"
	"slices"
	"strings"
)

// Call is one tag occurrence passed to a handler.
type Call struct {
	Tag   string
	Attrs Attrs

	// Body is the enclosed text. Enclosed is false for tags without a
	// closing tag, so an empty body can be told from no body.
	Body     string
	Enclosed bool
}

// Handler renders one tag occurrence. The returned text replaces the whole
// tag, body included; it is not scanned again.
type Handler func(ctx context.Context, c Call) string

// Registry maps tag names to handlers.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds tag to h, replacing any previous handler.
func (r *Registry) Register(tag string, h Handler) {
	r.handlers[tag] = h
}

// Has reports whether tag is registered.
func (r *Registry) Has(tag string) bool {
	_, ok := r.handlers[tag]
	return ok
}

// Tags lists the registered tag names, sorted.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		tags = append(tags, t)
	}
	slices.Sort(tags)
	return tags
}

func isNameByte(c byte) bool {
	return c == '_' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// tagMatch is one recognized occurrence in the text.
type tagMatch struct {
	start, end int
	open, shut bool // extra '[' before and ']' after the tag
	call       Call
}

// match recognizes a registered tag starting at the '[' at s[i].
func (r *Registry) match(s string, i int) (tagMatch, bool) {
	m := tagMatch{start: i}
	j := i + 1
	if j < len(s) && s[j] == '[' {
		m.open = true
		j++
	}
	k := j
	for k < len(s) && isNameByte(s[k]) {
		k++
	}
	tag := s[j:k]
	if _, ok := r.handlers[tag]; !ok {
		return m, false
	}
	m.call.Tag = tag

	closing := strings.IndexByte(s[k:], ']')
	if closing < 0 {
		return m, false
	}
	closing += k
	attrs := s[k:closing]
	m.end = closing + 1
	if strings.HasSuffix(attrs, "/") {
		attrs = attrs[:len(attrs)-1]
	} else {
		stop := "[/" + tag + "]"
		if n := strings.Index(s[m.end:], stop); n >= 0 {
			m.call.Body = s[m.end : m.end+n]
			m.call.Enclosed = true
			m.end += n + len(stop)
		}
	}
	m.call.Attrs = ParseAttrs(attrs)

	if m.end < len(s) && s[m.end] == ']' {
		m.shut = true
		m.end++
	}
	return m, true
}

// Do expands every registered tag in text, left to right.
func (r *Registry) Do(ctx context.Context, text string) string {
	if len(r.handlers) == 0 || !strings.Contains(text, "[") {
		return text
	}
	var b strings.Builder
	last := 0
	for i := 0; i < len(text); {
		n := strings.IndexByte(text[i:], '[')
		if n < 0 {
			break
		}
		i += n
		m, ok := r.match(text, i)
		if !ok {
			i++
			continue
		}
		b.WriteString(text[last:i])
		switch {
		case m.open && m.shut:
			b.WriteString(text[i+1 : m.end-1])
		default:
			if m.open {
				b.WriteByte('[')
			}
			b.WriteString(r.handlers[m.call.Tag](ctx, m.call))
			if m.shut {
				b.WriteByte(']')
			}
		}
		last, i = m.end, m.end
	}
	b.WriteString(text[last:])
	return b.String()
}

// Find returns the occurrences of tag in text without running handlers,
// as [start, end) offsets and the parsed calls. Escaped occurrences are
// skipped. tag does not need to be registered.
func Find(text, tag string) (spans [][2]int, calls []Call) {
	r := &Registry{handlers: map[string]Handler{tag: nil}}
	for i := 0; i < len(text); {
		n := strings.IndexByte(text[i:], '[')
		if n < 0 {
			break
		}
		i += n
		m, ok := r.match(text, i)
		if !ok {
			i++
			continue
		}
		if !(m.open && m.shut) {
			start, end := m.start, m.end
			if m.open {
				start++
			}
			if m.shut {
				end--
			}
			spans = append(spans, [2]int{start, end})
			calls = append(calls, m.call)
		}
		i = m.end
	}
	return spans, calls
}
