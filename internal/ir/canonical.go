package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces deterministic JSON for snapshots of rows and
// namespaces (golden files, CLI JSON output).
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units
//  2. No HTML escaping (< > & are kept)
//  3. Strings are NFC normalized
//  4. Floats are rejected
func MarshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case String:
		return marshalCanonicalString(string(val))
	case Int:
		return []byte(fmt.Sprintf("%d", val)), nil
	case string:
		return marshalCanonicalString(val)
	case int:
		return []byte(fmt.Sprintf("%d", val)), nil
	case int64:
		return []byte(fmt.Sprintf("%d", val)), nil
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case Row:
		return marshalCanonicalObject(map[string]Value(val))
	case Vars:
		return marshalCanonicalObject(map[string]Value(val))
	case map[string]Value:
		return marshalCanonicalObject(val)
	case []Row:
		return marshalCanonicalList(len(val), func(i int) any { return val[i] })
	case []string:
		return marshalCanonicalList(len(val), func(i int) any { return val[i] })
	case []any:
		return marshalCanonicalList(len(val), func(i int) any { return val[i] })
	case map[string]any:
		keys := sortedKeys(val)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if err := writeMember(&buf, i, k, val[k]); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case float32, float64:
		return nil, fmt.Errorf("floats are not representable in snapshots: %v", val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

func marshalCanonicalObject(obj map[string]Value) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range sortedKeys(obj) {
		if err := writeMember(&buf, i, k, obj[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, i int, k string, v any) error {
	if i > 0 {
		buf.WriteByte(',')
	}
	keyBytes, err := marshalCanonicalString(k)
	if err != nil {
		return fmt.Errorf("key %q: %w", k, err)
	}
	buf.Write(keyBytes)
	buf.WriteByte(':')
	valBytes, err := MarshalCanonical(v)
	if err != nil {
		return fmt.Errorf("value for key %q: %w", k, err)
	}
	buf.Write(valBytes)
	return nil
}

func marshalCanonicalList(n int, at func(int) any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		elem, err := MarshalCanonical(at(i))
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		buf.Write(elem)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// marshalCanonicalString encodes s as a JSON string after NFC normalization,
// without HTML escaping.
func marshalCanonicalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)
	return keys
}

// compareKeysUTF16 orders strings by UTF-16 code units, which differs from
// Go's byte order for characters outside the BMP.
func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
