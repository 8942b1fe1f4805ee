package queryir

import (
	"maps"
	"strings"
)

// Field is one column of a table.
//
// A scalar field has an empty Ref. A reference field names the table whose
// primary key it holds:
//
//	Field{Name: "color"}                // scalar
//	Field{Name: "owner", Ref: "people"} // cats.owner = people.id
type Field struct {
	Name string
	Ref  string
}

// IsRef reports whether the field references another table.
func (f Field) IsRef() bool { return f.Ref != "" }

// Table is one entry of the schema map.
//
// SQL is the source expression the table is read from: a table name or a
// parenthesized subquery. An empty SQL means the prefixed table name,
// quoted for the target dialect.
type Table struct {
	Name   string
	SQL    string
	Fields []Field
}

// Field looks up a field by name.
func (t *Table) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Schema is the ordered table schema map.
//
// Lookups of explicit "field@table" segments are memoized per table, so a
// Schema is mutable in that narrow sense. Use Clone to give each render its
// own copy.
type Schema struct {
	// Prefix is prepended to table names that carry no SQL source.
	Prefix string

	tables []Table
	byName map[string]int
	memo   map[string]map[string]string
}

// NewSchema indexes tables. When a name repeats, the first table wins; see
// Validate for reporting that.
func NewSchema(prefix string, tables []Table) *Schema {
	s := &Schema{
		Prefix: prefix,
		tables: tables,
		byName: make(map[string]int, len(tables)),
		memo:   make(map[string]map[string]string),
	}
	for i, t := range tables {
		if _, dup := s.byName[t.Name]; !dup {
			s.byName[t.Name] = i
		}
	}
	return s
}

// Clone returns a copy whose memoized lookups are independent of s.
func (s *Schema) Clone() *Schema {
	c := &Schema{
		Prefix: s.Prefix,
		tables: s.tables,
		byName: s.byName,
		memo:   make(map[string]map[string]string, len(s.memo)),
	}
	for t, m := range s.memo {
		c.memo[t] = maps.Clone(m)
	}
	return c
}

// Tables returns the tables in declaration order.
func (s *Schema) Tables() []Table { return s.tables }

// Table looks up a table by name.
func (s *Schema) Table(name string) (*Table, bool) {
	i, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return &s.tables[i], true
}

// Root returns name when it is a table, else the first table. It returns
// "" for an empty schema.
func (s *Schema) Root(name string) string {
	if _, ok := s.byName[name]; ok {
		return name
	}
	if len(s.tables) == 0 {
		return ""
	}
	return s.tables[0].Name
}

// HasField reports whether table has a field called name.
func (s *Schema) HasField(table, name string) bool {
	t, ok := s.Table(table)
	if !ok {
		return false
	}
	_, ok = t.Field(name)
	return ok
}

// Resolve looks up one path segment on table. It reports the referenced
// table for reference fields and "" for scalars; ok is false when the
// segment names nothing.
//
// A segment "field@target" resolves when field exists on table and target
// is a table; the answer is remembered.
func (s *Schema) Resolve(table, segment string) (ref string, ok bool) {
	t, found := s.Table(table)
	if !found {
		return "", false
	}
	if f, found := t.Field(segment); found {
		return f.Ref, true
	}
	if ref, found := s.memo[table][segment]; found {
		return ref, true
	}

	base, target, explicit := strings.Cut(segment, "@")
	if !explicit {
		return "", false
	}
	if _, found := t.Field(base); !found {
		return "", false
	}
	if _, found := s.byName[target]; !found {
		return "", false
	}
	if s.memo[table] == nil {
		s.memo[table] = make(map[string]string)
	}
	s.memo[table][segment] = target
	return target, true
}
