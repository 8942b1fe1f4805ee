package pipeline

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/catsite/internal/ir"
)

var (
	// ErrTooFewArgs is returned when a conversion has no argument left.
	ErrTooFewArgs = errors.New("too few arguments")

	// ErrBadSpecifier is returned for an unknown or truncated conversion.
	ErrBadSpecifier = errors.New("bad conversion specifier")
)

// Sprintf formats like the printf family of template languages:
//
//	%[argnum$][flags][width][.precision]specifier
//
// Flags are "-" (left-justify), "+" (always sign), "0" or " " (padding
// character) and "'c" (pad with c). Specifiers b c d e E f F g G o s u x X
// convert their argument first: integers take the leading number of text,
// "s" takes text as is.
func Sprintf(format string, args ...ir.Value) (string, error) {
	var b strings.Builder
	next := 0
	for i := 0; i < len(format); {
		c := format[i]
		if c != '%' {
			j := strings.IndexByte(format[i:], '%')
			if j < 0 {
				j = len(format) - i
			}
			b.WriteString(format[i : i+j])
			i += j
			continue
		}
		i++
		if i >= len(format) {
			return "", ErrBadSpecifier
		}
		if format[i] == '%' {
			b.WriteByte('%')
			i++
			continue
		}

		var sp spec
		sp.pad = ' '
		sp.precision = -1

		// Argument number.
		argnum := -1
		if j := digitsEnd(format, i); j > i && j < len(format) && format[j] == '$' {
			n, err := strconv.Atoi(format[i:j])
			if err != nil || n <= 0 {
				return "", fmt.Errorf("%w: argument number %q", ErrBadSpecifier, format[i:j])
			}
			argnum = n - 1
			i = j + 1
		}

	flags:
		for i < len(format) {
			switch format[i] {
			case '-':
				sp.left = true
			case '+':
				sp.plus = true
			case '0', ' ':
				sp.pad = format[i]
			case '\'':
				if i+1 >= len(format) {
					return "", ErrBadSpecifier
				}
				i++
				sp.pad = format[i]
			default:
				break flags
			}
			i++
		}

		if j := digitsEnd(format, i); j > i {
			w, err := fieldSize(format[i:j])
			if err != nil {
				return "", err
			}
			sp.width = w
			i = j
		}
		if i < len(format) && format[i] == '.' {
			i++
			j := digitsEnd(format, i)
			sp.precision = 0
			if j > i {
				p, err := fieldSize(format[i:j])
				if err != nil {
					return "", err
				}
				sp.precision = p
			}
			i = j
		}
		if i >= len(format) {
			return "", ErrBadSpecifier
		}
		verb := format[i]
		i++

		idx := argnum
		if idx < 0 {
			idx = next
			next++
		}
		if idx >= len(args) {
			return "", fmt.Errorf("%w: need %d, have %d", ErrTooFewArgs, idx+1, len(args))
		}
		s, err := sp.convert(verb, args[idx])
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

type spec struct {
	left      bool
	plus      bool
	pad       byte
	width     int
	precision int
}

func (sp spec) convert(verb byte, arg ir.Value) (string, error) {
	switch verb {
	case 'd':
		n := ir.ToInt(arg)
		return sp.number(strconv.FormatInt(n, 10), n >= 0), nil
	case 'u':
		return sp.justify(strconv.FormatUint(uint64(ir.ToInt(arg)), 10)), nil
	case 'c':
		return string([]byte{byte(ir.ToInt(arg))}), nil
	case 'b':
		return sp.justify(strconv.FormatUint(uint64(ir.ToInt(arg)), 2)), nil
	case 'o':
		return sp.justify(strconv.FormatUint(uint64(ir.ToInt(arg)), 8)), nil
	case 'x':
		return sp.justify(strconv.FormatUint(uint64(ir.ToInt(arg)), 16)), nil
	case 'X':
		return sp.justify(strings.ToUpper(strconv.FormatUint(uint64(ir.ToInt(arg)), 16))), nil
	case 'e', 'E', 'f', 'F', 'g', 'G', 'h', 'H':
		f := ir.ToFloat(arg)
		return sp.number(sp.float(verb, f), !math.Signbit(f)), nil
	case 's':
		s := ir.ToString(arg)
		if sp.precision >= 0 && sp.precision < len(s) {
			s = s[:sp.precision]
		}
		return sp.justify(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBadSpecifier, verb)
	}
}

func (sp spec) float(verb byte, f float64) string {
	prec := sp.precision
	if prec < 0 {
		prec = 6
	}
	switch verb {
	case 'f', 'F':
		return strconv.FormatFloat(f, 'f', prec, 64)
	case 'e', 'E':
		s := shortExponent(strconv.FormatFloat(f, 'e', prec, 64))
		if verb == 'E' {
			s = strings.ToUpper(s)
		}
		return s
	default:
		if prec == 0 {
			prec = 1
		}
		s := shortExponent(strconv.FormatFloat(f, 'g', prec, 64))
		if verb == 'G' || verb == 'H' {
			s = strings.ToUpper(s)
		}
		return s
	}
}

// shortExponent drops leading zeros from the exponent: "1.5e+01" is "1.5e+1".
func shortExponent(s string) string {
	i := strings.IndexAny(s, "eE")
	if i < 0 || i+2 >= len(s) {
		return s
	}
	exp := strings.TrimLeft(s[i+2:], "0")
	if exp == "" {
		exp = "0"
	}
	return s[:i+2] + exp
}

// number justifies a signed numeric string. Zero padding goes between the
// sign and the digits.
func (sp spec) number(s string, nonNegative bool) string {
	if nonNegative && sp.plus {
		s = "+" + s
	}
	if sp.left || sp.pad != '0' || len(s) >= sp.width {
		return sp.justify(s)
	}
	sign := ""
	if s != "" && (s[0] == '-' || s[0] == '+') {
		sign, s = s[:1], s[1:]
	}
	return sign + strings.Repeat("0", sp.width-len(sign)-len(s)) + s
}

func (sp spec) justify(s string) string {
	if len(s) >= sp.width {
		return s
	}
	fill := strings.Repeat(string(sp.pad), sp.width-len(s))
	if sp.left {
		return s + fill
	}
	return fill + s
}

// maxFieldSize bounds widths and precisions.
const maxFieldSize = 4096

// fieldSize parses a width or precision.
func fieldSize(digits string) (int, error) {
	n, err := strconv.Atoi(digits)
	if err != nil || n > maxFieldSize {
		return 0, fmt.Errorf("%w: field size %q exceeds %d", ErrBadSpecifier, digits, maxFieldSize)
	}
	return n, nil
}

func digitsEnd(s string, i int) int {
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}
