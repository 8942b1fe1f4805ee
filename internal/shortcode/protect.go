package shortcode

import (
	"slices"
	"strings"
)

// Protector rewrites the names of protected tags in trusted text.
//
// Protected tags are registered under a secret name, so untrusted text
// (comments, imported data) cannot invoke them. Trusted page text is
// passed through Apply, which renames "[prefix+tag" and "[/prefix+tag"
// to "[secret+tag".
type Protector struct {
	prefix string
	secret string
	tags   []string
}

// NewProtector protects tags written as prefix+tag by renaming them to
// secret+tag.
func NewProtector(prefix, secret string, tags []string) *Protector {
	sorted := slices.Clone(tags)
	// Longer names first when one is a prefix of another.
	slices.Sort(sorted)
	slices.Reverse(sorted)
	return &Protector{prefix: prefix, secret: secret, tags: sorted}
}

// Name returns the registered name of a protected tag.
func (p *Protector) Name(tag string) string { return p.secret + tag }

// Apply renames every protected tag opening or closing in text.
func (p *Protector) Apply(text string) string {
	if len(p.tags) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		j := i + 1
		if j < len(text) && text[j] == '/' {
			j++
		}
		if !strings.HasPrefix(text[j:], p.prefix) {
			continue
		}
		k := j + len(p.prefix)
		for _, tag := range p.tags {
			end := k + len(tag)
			if !strings.HasPrefix(text[k:], tag) || end >= len(text) || isWordChar(text[end]) {
				continue
			}
			b.WriteString(text[last:j])
			b.WriteString(p.secret)
			last = k
			break
		}
	}
	b.WriteString(text[last:])
	return b.String()
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
