// Package datefmt formats calendar dates with strftime-style patterns.
//
// Only date conversions are honoured (%a %A %b %B %C %d %D %e %F %g %G %h %j
// %m %n %t %u %U %V %w %W %x %y %Y %%); time conversions stay in the output
// as literal text. GNU flags (_ - 0 ^ #) and a field width may precede a
// conversion, and the E/O modifiers are accepted where POSIX allows them.
// Names are rendered in the C locale.
package datefmt

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrBadDate is returned when the value does not start with YYYY-MM-DD.
var ErrBadDate = errors.New("not a YYYY-MM-DD date")

var (
	directiveRE = regexp.MustCompile(`%([_#^0-]?)([0-9]*)(E[CxyY]|O[demuUVwWy]|[%aAbBCdDeFgGhjmntuUVwWxyY])`)
	dateRE      = regexp.MustCompile(`^\s*([0-9]{4}-[0-9]{2}-[0-9]{2})`)
	upper       = cases.Upper(language.Und)
)

// numeric conversions and the characters they are padded with by default.
var numericPad = map[byte]byte{
	'C': '0', 'd': '0', 'e': ' ', 'g': '0', 'G': '0', 'j': '0', 'm': '0',
	'u': '0', 'U': '0', 'V': '0', 'w': '0', 'W': '0', 'y': '0', 'Y': '0',
}

// names are conversions rendered as locale text.
const names = "aAbBh"

// Format renders value, a date string starting with YYYY-MM-DD, through
// pattern. An empty value formats to an empty string.
func Format(pattern, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	m := dateRE.FindStringSubmatch(value)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrBadDate, value)
	}
	t, err := time.Parse("2006-01-02", m[1])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadDate, err)
	}
	return FormatTime(pattern, t), nil
}

// FormatTime renders t through pattern.
func FormatTime(pattern string, t time.Time) string {
	return directiveRE.ReplaceAllStringFunc(pattern, func(d string) string {
		sm := directiveRE.FindStringSubmatch(d)
		flag, width, spec := sm[1], sm[2], sm[3]
		conv := spec[len(spec)-1]
		return convert(flag, width, conv, t)
	})
}

func convert(flag, width string, conv byte, t time.Time) string {
	var s string
	switch conv {
	case '%':
		s = "%"
	case 'n':
		s = "\n"
	case 't':
		s = "\t"
	case 'x':
		s = strftime.Format("%d.%m.%Y", t)
	default:
		s = strftime.Format("%"+string(conv), t)
	}

	pad, numeric := numericPad[conv]
	if numeric {
		switch flag {
		case "-":
			return strings.TrimLeft(s[:len(s)-1], "0 ") + s[len(s)-1:]
		case "_":
			s = replaceLeading(s, '0', ' ')
			pad = ' '
		case "0":
			s = replaceLeading(s, ' ', '0')
			pad = '0'
		}
	} else {
		pad = ' '
	}

	if flag == "^" || (flag == "#" && strings.IndexByte(names, conv) >= 0) {
		s = upper.String(s)
	}

	if w, err := strconv.Atoi(width); err == nil && flag != "-" {
		if n := len([]rune(s)); n < w {
			s = strings.Repeat(string(pad), w-n) + s
		}
	}
	return s
}

// replaceLeading swaps leading from characters for to, keeping the last
// character so that a zero value stays visible.
func replaceLeading(s string, from, to byte) string {
	b := []byte(s)
	for i := 0; i < len(b)-1 && b[i] == from; i++ {
		b[i] = to
	}
	return string(b)
}
