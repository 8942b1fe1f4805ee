package ir

import (
	"math"
	"regexp"
	"strconv"
)

// Value is a sealed interface representing template-visible scalars.
// Only Null, String, and Int implement this.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null is an absent value: a SQL NULL, an unresolved field, an unset variable.
type Null struct{}

func (Null) irValue() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String is a text value. Database cells are always String (or Null).
type String string

func (String) irValue() {}

// Int is an integer value produced by assignments, built-in index variables
// and arithmetic transforms.
type Int int64

func (Int) irValue() {}

// Row is one database result row keyed by column alias.
type Row map[string]Value

// Get returns the column value, Null when absent.
func (r Row) Get(col string) Value {
	if v, ok := r[col]; ok && v != nil {
		return v
	}
	return Null{}
}

// IsSet reports whether v holds a value (not nil, not Null).
func IsSet(v Value) bool {
	if v == nil {
		return false
	}
	_, null := v.(Null)
	return !null
}

// IsString reports whether v is a String.
func IsString(v Value) bool {
	_, ok := v.(String)
	return ok
}

// Empty reports loose emptiness: unset, "", "0" and 0 are empty.
func Empty(v Value) bool {
	switch val := v.(type) {
	case String:
		return val == "" || val == "0"
	case Int:
		return val == 0
	default:
		return true
	}
}

// ToString stringifies v. Unset values become "".
func ToString(v Value) string {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return strconv.FormatInt(int64(val), 10)
	default:
		return ""
	}
}

// leadingNumber matches the numeric prefix honoured by ToInt.
var leadingNumber = regexp.MustCompile(`^[ \t\n\r\v\f]*([+-]?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)(?:[eE][+-]?[0-9]+)?)`)

// ToInt reads v as an integer the way content authors expect: the leading
// numeric part of a string counts ("12abc" is 12, "3.9" is 3, "1e3" is 1000),
// anything else is 0. Out-of-range values saturate.
func ToInt(v Value) int64 {
	switch val := v.(type) {
	case Int:
		return int64(val)
	case String:
		return ParseInt(string(val))
	default:
		return 0
	}
}

// ParseInt applies the ToInt rules to a plain string.
func ParseInt(s string) int64 {
	m := leadingNumber.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	num := m[1]
	if n, err := strconv.ParseInt(num, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil && f == 0 {
		return 0
	}
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

// ToFloat reads v as a number using the same leading-numeric rules as ToInt
// but keeps the fraction.
func ToFloat(v Value) float64 {
	switch val := v.(type) {
	case Int:
		return float64(val)
	case String:
		m := leadingNumber.FindStringSubmatch(string(val))
		if m == nil {
			return 0
		}
		f, _ := strconv.ParseFloat(m[1], 64)
		return f
	default:
		return 0
	}
}
