package queryir

import (
	"fmt"
)

// ValidationResult lists the problems found in a schema.
//
// A schema with problems still loads: lookups use the first of duplicate
// names and paths through dangling references are dropped at planning
// time. The problems tell a site author why a field renders empty.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems are human-readable, one per finding, in table order.
	Problems []string
}

// Validate checks that every reference names a table, that names are
// unique, and that every table has fields including primaryKey.
//
// Validate is a pure function with no side effects.
func Validate(s *Schema, primaryKey string) ValidationResult {
	v := &validator{schema: s}
	if len(s.tables) == 0 {
		v.addProblem("schema has no tables")
	}

	seen := make(map[string]bool, len(s.tables))
	for i := range s.tables {
		t := &s.tables[i]
		if t.Name == "" {
			v.addProblem("table #%d has no name", i+1)
		}
		if seen[t.Name] {
			v.addProblem("table %q is declared more than once", t.Name)
		}
		seen[t.Name] = true
		v.validateTable(t, primaryKey)
	}

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	schema   *Schema
	problems []string
}

// addProblem appends a problem message.
func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

// validateTable checks the fields of one table.
func (v *validator) validateTable(t *Table, primaryKey string) {
	if len(t.Fields) == 0 {
		v.addProblem("table %q has no fields", t.Name)
		return
	}

	seen := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if seen[f.Name] {
			v.addProblem("table %q: field %q is declared more than once", t.Name, f.Name)
		}
		seen[f.Name] = true

		if !f.IsRef() {
			continue
		}
		if _, ok := v.schema.Table(f.Ref); !ok {
			v.addProblem("table %q: field %q references unknown table %q", t.Name, f.Name, f.Ref)
		}
	}

	if primaryKey != "" && !seen[primaryKey] {
		v.addProblem("table %q has no primary key field %q", t.Name, primaryKey)
	}
}
