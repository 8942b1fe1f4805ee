package pipeline

import (
	"regexp"
	"strings"

	"github.com/roach88/catsite/internal/datefmt"
	"github.com/roach88/catsite/internal/ir"
)

// Fail replaces the output of any format that cannot be applied.
const Fail = "FAIL"

// FormatKind selects the formatter behind a format string.
type FormatKind int

const (
	FormatPrintf FormatKind = iota
	FormatDate
	FormatImageSize
	FormatInvalid
)

// Format is a parsed format string.
type Format struct {
	Kind    FormatKind
	Pattern string
}

var taggedFormatRE = regexp.MustCompile(`(?s)^%\(([^)]*)\)(.*)$`)

// ParseFormat classifies form. "%(tag)rest" picks a formatter by tag ("" for
// printf, "date", "wh"); anything else is a printf pattern.
func ParseFormat(form string) Format {
	if !strings.HasPrefix(form, "%(") {
		return Format{Kind: FormatPrintf, Pattern: form}
	}
	m := taggedFormatRE.FindStringSubmatch(form)
	if m == nil {
		return Format{Kind: FormatInvalid}
	}
	switch m[1] {
	case "":
		return Format{Kind: FormatPrintf, Pattern: m[2]}
	case "date":
		return Format{Kind: FormatDate, Pattern: m[2]}
	case "wh":
		return Format{Kind: FormatImageSize, Pattern: m[2]}
	default:
		return Format{Kind: FormatInvalid}
	}
}

// Formatter applies format strings and caches their parsed form.
type Formatter struct {
	formats map[string]Format
	sizes   *ImageSizes
}

// NewFormatter returns a formatter resolving local image URLs under root.
func NewFormatter(root string) *Formatter {
	return &Formatter{
		formats: make(map[string]Format),
		sizes:   NewImageSizes(root),
	}
}

func (f *Formatter) get(form string) Format {
	if p, ok := f.formats[form]; ok {
		return p
	}
	p := ParseFormat(form)
	f.formats[form] = p
	return p
}

// Apply formats a single value. Errors render as Fail.
func (f *Formatter) Apply(form string, v ir.Value) string {
	return f.Call(form, v)
}

// Call formats a list of values. Only printf consumes more than the first
// value; date and image formats read the first one as text.
func (f *Formatter) Call(form string, args ...ir.Value) string {
	p := f.get(form)
	first := ""
	if len(args) > 0 {
		first = ir.ToString(args[0])
	}
	switch p.Kind {
	case FormatPrintf:
		s, err := Sprintf(p.Pattern, args...)
		if err != nil {
			return Fail
		}
		return s
	case FormatDate:
		s, err := datefmt.Format(p.Pattern, first)
		if err != nil {
			return Fail
		}
		return s
	case FormatImageSize:
		return f.sizes.Format(p.Pattern, first)
	default:
		return Fail
	}
}
