// Package mask compiles shell-style wildcard masks into anchored regular
// expressions.
//
// Supported syntax:
//
//	*        any run of characters (including none)
//	?        exactly one character
//	[...]    character class; [!...] or [^...] negates
//	a-z      ranges inside a class
//	[:name:] POSIX named class inside a class ([:^name:] negated)
//	[.c.]    collating element, single character only
//	[=c=]    equivalence class, single character only
//	\c       literal c
//
// A malformed class degrades to a literal '['; only a dangling backslash
// makes the whole mask invalid.
package mask

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidMask is returned for masks that cannot be translated at all.
var ErrInvalidMask = errors.New("invalid wildcard mask")

// posixClasses are the named classes accepted inside brackets.
var posixClasses = map[string]bool{
	"alnum": true, "alpha": true, "ascii": true, "blank": true,
	"cntrl": true, "digit": true, "graph": true, "lower": true,
	"print": true, "punct": true, "space": true, "upper": true,
	"word": true, "xdigit": true,
	"^alnum": true, "^alpha": true, "^ascii": true, "^blank": true,
	"^cntrl": true, "^digit": true, "^graph": true, "^lower": true,
	"^print": true, "^punct": true, "^space": true, "^upper": true,
	"^word": true, "^xdigit": true,
}

type spanEnd int

const (
	spanDone    spanEnd = iota // end of mask
	spanBroken                 // a literal after wildcards; carried into the next span
	spanClass                  // a '[' that may open a class
)

// Compile translates mask and compiles the result.
func Compile(mask string) (*regexp.Regexp, error) {
	expr, err := Translate(mask)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.Join(ErrInvalidMask, err)
	}
	return re, nil
}

// Translate returns the regular expression text equivalent to mask. The
// expression is anchored at both ends and lets wildcards match newlines.
func Translate(mask string) (string, error) {
	r := []rune(mask)
	n := len(r)
	var re strings.Builder
	re.WriteString("(?s)^")

	i := 0
	var carry []rune
	for {
		chunk := carry
		carry = nil
		q, star := 0, 0
		end := spanDone

	span:
		for i < n {
			c := r[i]
			i++
			switch c {
			case '\\':
				if i >= n {
					return "", ErrInvalidMask
				}
				c = r[i]
				i++
			case '[':
				// A class needs at least two more characters.
				if i+1 < n {
					end = spanClass
					break span
				}
			case '?':
				q++
				star++
				continue
			case '*':
				star++
				continue
			}
			if star > 0 {
				carry = []rune{c}
				end = spanBroken
				break span
			}
			chunk = append(chunk, c)
		}

		re.WriteString(regexp.QuoteMeta(string(chunk)))
		if star > 0 {
			re.WriteString(wildcards(q, star-q))
		}

		switch end {
		case spanDone:
			re.WriteString("$")
			return re.String(), nil
		case spanBroken:
			continue
		}

		class, next, ok, err := parseClass(r, i)
		if err != nil {
			return "", err
		}
		if ok {
			re.WriteString(class)
			i = next
		} else {
			// Reparse the text after '[' as ordinary mask text.
			re.WriteString(`\[`)
		}
	}
}

// wildcards renders a run of q question marks and stars asterisks.
func wildcards(q, stars int) string {
	switch {
	case q > 1 && stars > 0:
		return ".{" + strconv.Itoa(q) + ",}"
	case q > 1:
		return ".{" + strconv.Itoa(q) + "}"
	case q == 1 && stars > 0:
		return ".+"
	case q == 1:
		return "."
	default:
		return ".*"
	}
}

// parseClass parses a bracket expression whose body starts at r[start].
// ok is false when the class is malformed and '[' must be taken literally.
func parseClass(r []rune, start int) (class string, next int, ok bool, err error) {
	n := len(r)
	i := start
	literalClose := start // ']' at this index is a member, not the end
	negate := false
	rangePending := false
	between := 1 // characters since the last range or named class

	var body strings.Builder
	for i < n {
		k := i
		c := r[i]
		i++
		switch c {
		case ']':
			if k != literalClose {
				prefix := "["
				if negate {
					prefix = "[^"
				}
				return prefix + body.String() + "]", i, true, nil
			}
		case '!', '^':
			if k == start {
				negate = true
				literalClose = k + 1
				continue
			}
		case '\\':
			if i >= n {
				return "", 0, false, ErrInvalidMask
			}
			c = r[i]
			i++
		case '-':
			if i >= n {
				return "", 0, false, nil
			}
			if r[i] != ']' && between >= 2 {
				between = 0
				rangePending = true
				continue
			}
		case '[':
			if i >= n {
				return "", 0, false, nil
			}
			c2 := r[i]
			if c2 != '.' && c2 != '=' && c2 != ':' {
				break
			}
			closeAt := indexPair(r, i+1, c2, ']')
			if closeAt < 0 {
				return "", 0, false, nil
			}
			tag := string(r[i+1 : closeAt])
			if c2 != '.' {
				// Classes cannot be part of a range.
				if rangePending {
					body.WriteString(`\-`)
				}
				rangePending = false
				between = 0
			}
			i = closeAt + 2
			if c2 == ':' {
				if !posixClasses[tag] {
					return "", 0, false, nil
				}
				body.WriteString("[:" + tag + ":]")
				between = 1
				continue
			}
			elem := []rune(tag)
			if len(elem) != 1 {
				return "", 0, false, nil
			}
			c = elem[0]
		}
		if rangePending {
			body.WriteByte('-')
			rangePending = false
		}
		if strings.ContainsRune(`\-^][`, c) {
			body.WriteByte('\\')
		}
		body.WriteRune(c)
		between++
	}
	return "", 0, false, nil
}

// indexPair finds a then b adjacent in r at or after from.
func indexPair(r []rune, from int, a, b rune) int {
	for j := from; j+1 < len(r); j++ {
		if r[j] == a && r[j+1] == b {
			return j
		}
	}
	return -1
}

// Cache memoizes compiled masks by their text. Invalid masks are cached as
// nil. A Cache belongs to one engine and is not safe for concurrent use.
type Cache struct {
	entries map[string]*regexp.Regexp
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*regexp.Regexp)}
}

// Get returns the compiled mask, or nil when the mask is invalid.
func (c *Cache) Get(mask string) *regexp.Regexp {
	if re, ok := c.entries[mask]; ok {
		return re
	}
	re, err := Compile(mask)
	if err != nil {
		re = nil
	}
	c.entries[mask] = re
	return re
}

// Match reports whether s matches mask. Invalid masks match nothing.
func (c *Cache) Match(mask, s string) bool {
	re := c.Get(mask)
	return re != nil && re.MatchString(s)
}
