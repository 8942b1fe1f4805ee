package querysql

import (
	"strings"

	"github.com/roach88/catsite/internal/queryir"
)

// PrefixMacro in a table's SQL source is replaced by the schema prefix.
const PrefixMacro = "{prefix}"

// Query is an assembled statement and the result aliases of the fields it
// was built for.
type Query struct {
	SQL string

	// Aliases maps each requested field reference to its result column.
	Aliases map[string]string

	// Dropped lists requested fields that did not resolve.
	Dropped []string
}

// Source returns the FROM expression of a table: its SQL fragment with the
// prefix substituted, or the quoted prefixed table name.
func Source(s *queryir.Schema, table string, d Dialect) string {
	t, ok := s.Table(table)
	if ok && t.SQL != "" {
		return strings.ReplaceAll(t.SQL, PrefixMacro, s.Prefix)
	}
	return d.QuoteIdent(s.Prefix + table)
}

// ColumnExprs qualifies every column of plan with its table alias.
func ColumnExprs(plan *queryir.Plan, d Dialect) Columns {
	cols := make(Columns, len(plan.Columns))
	for _, c := range plan.Columns {
		cols[c.Path] = d.QuoteIdent(c.Node.Alias) + "." + d.QuoteIdent(c.Field)
	}
	return cols
}

// fromClause renders " FROM root AS t0 LEFT JOIN ..." in plan node order.
func fromClause(s *queryir.Schema, plan *queryir.Plan, pk string, d Dialect) string {
	var b strings.Builder
	root := plan.Nodes[0]
	b.WriteString(" FROM " + Source(s, root.Table, d) + " AS " + d.QuoteIdent(root.Alias))
	for _, n := range plan.Nodes[1:] {
		alias := d.QuoteIdent(n.Alias)
		b.WriteString(" LEFT JOIN " + Source(s, n.Table, d) + " AS " + alias)
		b.WriteString(" ON " + d.QuoteIdent(n.Parent.Alias) + "." + d.QuoteIdent(n.ParentField))
		b.WriteString(" = " + alias + "." + d.QuoteIdent(pk))
	}
	return b.String()
}

// Select assembles the row query of a from_table block: fields are the
// template's field references, cond the active condition (nil matches
// nothing). ok is false when no field resolved, in which case nothing
// should be queried.
func Select(s *queryir.Schema, table string, fields []string, pk string, cond Condition, d Dialect) (q Query, ok bool) {
	p := queryir.NewPlanner(s, table)
	p.Select(fields...)
	if p.Empty() {
		return Query{Dropped: fields}, false
	}
	if cond != nil {
		p.Require(cond.Fields()...)
	}
	plan := p.Plan()
	cols := ColumnExprs(plan, d)

	var list []string
	for _, c := range plan.Columns {
		alias, selected := plan.Aliases[c.Path]
		if !selected {
			continue
		}
		list = append(list, cols[c.Path]+" AS "+d.QuoteIdent(alias))
	}

	sql := "SELECT " + strings.Join(list, ", ") +
		fromClause(s, plan, pk, d) +
		WhereClause(cond, cols, d)
	return Query{SQL: sql, Aliases: plan.Aliases, Dropped: plan.Dropped}, true
}

// Result aliases of an alphabet query.
const (
	LetterAlias = "_a"
	CountAlias  = "_c"
	EqualAlias  = "_e"
)

// Alphabet selects what an alphabet block shows besides the letters.
type Alphabet struct {
	// Count adds the number of rows per letter.
	Count bool

	// Equal adds a flag for the letter equal to Test.
	Equal bool
	Test  string
}

// AlphabetSelect assembles the query listing the distinct first letters of
// one field of table. The precomputed first-letter column is used when
// letter1Prefix is set and the table has it. ok is false when the field
// does not exist.
func AlphabetSelect(s *queryir.Schema, table, field, pk, letter1Prefix string, a Alphabet, d Dialect) (string, bool) {
	table = s.Root(table)
	if !s.HasField(table, field) {
		return "", false
	}
	cols := Columns{pk: d.QuoteIdent(pk), field: d.QuoteIdent(field)}
	letter := d.FirstChar(d.QuoteIdent(field))
	prefix := ""
	if letter1Prefix != "" && s.HasField(table, letter1Prefix+field) {
		prefix = letter1Prefix
		cols[prefix+field] = d.QuoteIdent(prefix + field)
		letter = cols[prefix+field]
	}

	list := []string{letter + " AS " + d.QuoteIdent(LetterAlias)}
	if a.Count {
		list = append(list, "COUNT(*) AS "+d.QuoteIdent(CountAlias))
	}
	if a.Equal {
		c, ok := NewByLetter(pk, field, prefix, a.Test).Clauses(cols, d)
		cmp := c.Where
		if !ok || cmp == "" {
			cmp = "FALSE"
		}
		list = append(list, "("+cmp+") AS "+d.QuoteIdent(EqualAlias))
	}

	var b strings.Builder
	if a.Count || a.Equal {
		b.WriteString("SELECT ")
	} else {
		b.WriteString("SELECT DISTINCT ")
	}
	b.WriteString(strings.Join(list, ", "))
	b.WriteString(" FROM " + Source(s, table, d))
	if a.Count || a.Equal {
		b.WriteString(" GROUP BY " + d.QuoteIdent(LetterAlias))
	}
	b.WriteString(" ORDER BY " + d.QuoteIdent(LetterAlias) + " ASC")
	return b.String(), true
}

// Totals configures a totals block.
type Totals struct {
	// CountName is the template name of the row count; fields named
	// CountName+":"+path count the non-NULL values of path.
	CountName string

	// CountAll counts values instead of summing them for plain fields.
	CountAll bool
}

// TotalsSelect assembles the aggregate query of a totals block: the row
// count first, then the per-field counts in request order, then the sums in
// join order. Only the WHERE part of cond applies. ok is false when neither
// the row count nor any field was requested successfully.
func TotalsSelect(s *queryir.Schema, table string, fields []string, pk string, cond Condition, t Totals, d Dialect) (q Query, ok bool) {
	if t.CountName == "" {
		t.CountName = CountAlias
	}
	q.Aliases = make(map[string]string)

	p := queryir.NewPlanner(s, table)
	var counted []string
	summed := make(map[string]string)
	wantRows := false
	for _, f := range fields {
		switch {
		case f == t.CountName:
			wantRows = true
			q.Aliases[f] = CountAlias
		case strings.HasPrefix(f, t.CountName+":"):
			path := f[len(t.CountName)+1:]
			if path == "" || p.Select(path) == 0 {
				q.Dropped = append(q.Dropped, f)
				continue
			}
			counted = append(counted, path)
			q.Aliases[f] = CountAlias + "_" + queryir.ColumnAlias(path)
		default:
			if p.Select(f) == 0 {
				q.Dropped = append(q.Dropped, f)
				continue
			}
			summed[f] = queryir.ColumnAlias(f)
			q.Aliases[f] = summed[f]
		}
	}
	if !wantRows && p.Empty() {
		return q, false
	}
	if cond != nil {
		p.Require(cond.Fields()...)
	}
	plan := p.Plan()
	cols := ColumnExprs(plan, d)

	var list []string
	if wantRows {
		list = append(list, "COUNT(*) AS "+d.QuoteIdent(CountAlias))
	}
	agg := "SUM("
	if t.CountAll {
		agg = "COUNT("
	}
	for _, path := range counted {
		alias := CountAlias + "_" + queryir.ColumnAlias(path)
		list = append(list, "COUNT("+cols[path]+") AS "+d.QuoteIdent(alias))
	}
	for _, c := range plan.Columns {
		if alias, ok := summed[c.Path]; ok {
			list = append(list, agg+cols[c.Path]+") AS "+d.QuoteIdent(alias))
		}
	}

	where := " WHERE FALSE"
	if cond != nil {
		if c, ok := cond.Clauses(cols, d); ok {
			where = ""
			if c.Where != "" {
				where = " WHERE " + c.Where
			}
		}
	}
	q.SQL = "SELECT " + strings.Join(list, ", ") + fromClause(s, plan, pk, d) + where
	return q, true
}
