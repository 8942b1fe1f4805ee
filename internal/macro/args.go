package macro

import (
	"strconv"
	"strings"
)

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// Args splits a macro argument list into words. A word is a bare run of
// non-space bytes, or a quoted string followed by space or the end of the
// list. Double-quoted strings interpret C backslash escapes; single-quoted
// strings and bare words are taken literally. A quote that is not followed
// by space starts a bare word.
//
//	Args(`a "b c\n" 'd e' f"g`) // ["a", "b c\n", "d e", `f"g`]
func Args(s string) []string {
	var out []string
	i := 0
	for i < len(s) {
		if isSpace(s[i]) {
			i++
			continue
		}
		if q := s[i]; q == '"' || q == '\'' {
			if j := strings.IndexByte(s[i+1:], q); j >= 0 {
				end := i + j + 2
				if end == len(s) || isSpace(s[end]) {
					word := s[i+1 : end-1]
					if q == '"' {
						word = Unescape(word)
					}
					out = append(out, word)
					i = end
					continue
				}
			}
		}
		end := i
		for end < len(s) && !isSpace(s[end]) {
			end++
		}
		out = append(out, s[i:end])
		i = end
	}
	return out
}

// Unescape interprets C-style backslash escapes: \n \t \r \a \v \b \f,
// octal \NNN and hex \xHH. Any other escaped byte stands for itself.
func Unescape(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch c = s[i]; c {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte('\a')
		case 'v':
			b.WriteByte('\v')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'x':
			n := 0
			for n < 2 && i+1+n < len(s) && isHex(s[i+1+n]) {
				n++
			}
			if n == 0 {
				b.WriteByte('x')
				continue
			}
			v, _ := strconv.ParseUint(s[i+1:i+1+n], 16, 8)
			b.WriteByte(byte(v))
			i += n
		default:
			if c < '0' || c > '7' {
				b.WriteByte(c)
				continue
			}
			n := 1
			for n < 3 && i+n < len(s) && s[i+n] >= '0' && s[i+n] <= '7' {
				n++
			}
			v, _ := strconv.ParseUint(s[i:i+n], 8, 16)
			b.WriteByte(byte(v))
			i += n - 1
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
