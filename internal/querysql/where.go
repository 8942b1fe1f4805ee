package querysql

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/roach88/catsite/internal/ir"
	"github.com/roach88/catsite/internal/pipeline"
	"golang.org/x/text/unicode/norm"
)

// ErrConditionUnavailable is returned by condition constructors whose
// arguments cannot describe a query. Callers clear the active condition,
// so the next query matches nothing.
var ErrConditionUnavailable = errors.New("where condition unavailable")

// Columns maps field paths to their SQL expressions in one query.
type Columns map[string]string

// Clauses are the rendered parts of a condition. Empty parts are omitted.
type Clauses struct {
	Where   string
	OrderBy string
	Limit   string
	Offset  string
}

// Condition selects and orders the rows of table queries.
//
// This is a sealed interface - only types in this package implement it.
// A condition is built once from directive arguments, then rendered into
// every query that follows until it is replaced.
type Condition interface {
	// Fields lists the paths the condition reads. They are joined into
	// the query without being selected.
	Fields() []string

	// Clauses renders the condition. ok is false when a column it needs
	// is missing from cols.
	Clauses(cols Columns, d Dialect) (c Clauses, ok bool)

	// Export lists the variables the condition publishes to templates.
	Export() map[string]ir.Value

	condition() // Marker method - seals interface to this package
}

// WhereClause renders cond as the tail of a SELECT. A nil condition or a
// missing column yields " WHERE FALSE", so a broken template reads nothing.
func WhereClause(cond Condition, cols Columns, d Dialect) string {
	if cond == nil {
		return " WHERE FALSE"
	}
	c, ok := cond.Clauses(cols, d)
	if !ok {
		return " WHERE FALSE"
	}
	var b strings.Builder
	for _, part := range []struct{ kw, text string }{
		{"WHERE", c.Where},
		{"ORDER BY", c.OrderBy},
		{"LIMIT", c.Limit},
		{"OFFSET", c.Offset},
	} {
		if part.text == "" {
			continue
		}
		b.WriteString(" " + part.kw + " " + part.text)
	}
	return b.String()
}

// ByID matches the row whose primary key equals Value.
type ByID struct {
	PrimaryKey string
	Value      int64
}

func (ByID) condition() {}

func (c ByID) Fields() []string { return []string{c.PrimaryKey} }

func (c ByID) Clauses(cols Columns, _ Dialect) (Clauses, bool) {
	pk, ok := cols[c.PrimaryKey]
	if !ok {
		return Clauses{}, false
	}
	return Clauses{Where: pk + " = " + strconv.FormatInt(c.Value, 10)}, true
}

func (c ByID) Export() map[string]ir.Value {
	return map[string]ir.Value{"_id": ir.Int(c.Value)}
}

// ByLetter matches rows whose Field starts with the letter Value. An empty
// Value matches NULL. When the schema has a precomputed first-letter
// column (Field with the letter prefix on its last segment), it is
// compared exactly instead of scanning with LIKE.
type ByLetter struct {
	PrimaryKey string
	Field      string
	Field1     string
	Value      string
}

// NewByLetter builds a first-letter condition. letter1Prefix names the
// precomputed columns ("" when there are none); only the first character
// of value is used.
func NewByLetter(primaryKey, field, letter1Prefix, value string) *ByLetter {
	c := &ByLetter{PrimaryKey: primaryKey, Field: field}
	if letter1Prefix != "" {
		at := strings.LastIndex(field, "->")
		if at < 0 {
			at = 0
		} else {
			at += 2
		}
		c.Field1 = field[:at] + letter1Prefix + field[at:]
	}
	value = norm.NFC.String(value)
	if r, size := utf8.DecodeRuneInString(value); size > 0 && r != utf8.RuneError {
		c.Value = value[:size]
	} else if size > 0 {
		c.Value = value[:1]
	}
	return c
}

func (*ByLetter) condition() {}

func (c *ByLetter) Fields() []string {
	out := []string{c.PrimaryKey, c.Field}
	if c.Field1 != "" {
		out = append(out, c.Field1)
	}
	return out
}

func (c *ByLetter) Clauses(cols Columns, d Dialect) (Clauses, bool) {
	pk, ok := cols[c.PrimaryKey]
	if !ok {
		return Clauses{}, false
	}
	field, ok := cols[c.Field]
	if !ok {
		return Clauses{}, false
	}
	f1, fast := cols[c.Field1]

	var res Clauses
	switch {
	case c.Value == "" && fast:
		res.Where = f1 + " IS NULL"
	case c.Value == "":
		res.Where = field + " IS NULL"
	case fast:
		res.Where = f1 + " = '" + d.EscapeString(c.Value) + "'"
	default:
		res.Where = d.LikePrefix(field, c.Value)
	}
	res.OrderBy = field + ", " + pk + " ASC"
	return res, true
}

func (c *ByLetter) Export() map[string]ir.Value {
	return map[string]ir.Value{
		"_letter1":    ir.String(pipeline.EscapeHTML(c.Value)),
		"_letter1url": ir.String(pipeline.EscapeURL(c.Value)),
	}
}

// BySibling matches the rows that share the values of Fields with one
// reference row, excluding that row itself. Values holds the reference
// row's values by path, including the primary key; a Null value matches
// NULL.
type BySibling struct {
	PrimaryKey string
	Match      []string
	Values     map[string]ir.Value
	Sort       string
}

// NewBySibling builds a sibling condition from the current row. Unless
// nulls is set, every matched path must have a value.
func NewBySibling(primaryKey string, match []string, values map[string]ir.Value, sort string, nulls bool) (*BySibling, error) {
	if len(match) == 0 {
		return nil, fmt.Errorf("%w: no fields to match", ErrConditionUnavailable)
	}
	if !nulls {
		for _, path := range match {
			if !ir.IsSet(values[path]) {
				return nil, fmt.Errorf("%w: %s has no value", ErrConditionUnavailable, path)
			}
		}
	}
	return &BySibling{PrimaryKey: primaryKey, Match: match, Values: values, Sort: sort}, nil
}

func (*BySibling) condition() {}

func (c *BySibling) Fields() []string {
	out := []string{c.PrimaryKey}
	if c.Sort != "" {
		out = append(out, c.Sort)
	}
	return append(out, c.Match...)
}

func (c *BySibling) Clauses(cols Columns, d Dialect) (Clauses, bool) {
	var cmp []string
	for _, path := range c.Match {
		col, ok := cols[path]
		if !ok {
			return Clauses{}, false
		}
		if v := c.Values[path]; ir.IsSet(v) {
			cmp = append(cmp, col+" = '"+d.EscapeString(ir.ToString(v))+"'")
		} else {
			cmp = append(cmp, col+" IS NULL")
		}
	}
	pk, ok := cols[c.PrimaryKey]
	if !ok {
		return Clauses{}, false
	}
	if v := c.Values[c.PrimaryKey]; ir.IsSet(v) {
		cmp = append(cmp, pk+" <> '"+d.EscapeString(ir.ToString(v))+"'")
	}

	order, ok := sortOrder(cols, c.Sort, pk)
	if !ok {
		return Clauses{}, false
	}
	return Clauses{Where: strings.Join(cmp, " AND "), OrderBy: order}, true
}

func (c *BySibling) Export() map[string]ir.Value { return nil }

// ByKey matches rows whose Field, a foreign key, equals Value.
type ByKey struct {
	PrimaryKey string
	Field      string
	Sort       string
	Value      int64
}

func (ByKey) condition() {}

func (c ByKey) Fields() []string {
	out := []string{c.PrimaryKey, c.Field}
	if c.Sort != "" {
		out = append(out, c.Sort)
	}
	return out
}

func (c ByKey) Clauses(cols Columns, _ Dialect) (Clauses, bool) {
	pk, ok := cols[c.PrimaryKey]
	if !ok {
		return Clauses{}, false
	}
	field, ok := cols[c.Field]
	if !ok {
		return Clauses{}, false
	}
	order, ok := sortOrder(cols, c.Sort, pk)
	if !ok {
		return Clauses{}, false
	}
	return Clauses{Where: field + " = " + strconv.FormatInt(c.Value, 10), OrderBy: order}, true
}

func (c ByKey) Export() map[string]ir.Value {
	return map[string]ir.Value{"_key": ir.Int(c.Value)}
}

// sortOrder orders by the optional sort path, then by primary key.
func sortOrder(cols Columns, sort, pk string) (string, bool) {
	if sort == "" {
		return pk + " ASC", true
	}
	col, ok := cols[sort]
	if !ok {
		return "", false
	}
	return col + ", " + pk + " ASC", true
}

// Paged adds LIMIT and OFFSET to another condition.
type Paged struct {
	Cond Condition

	// Limit is the page size; 0 means no limit.
	Limit int64

	// Page is 1-based.
	Page int64
}

// NewPaged pages cond by step rows. A non-positive step means no limit.
// The page is clamped to [1, MaxInt64/step] so the offset cannot overflow.
func NewPaged(cond Condition, step, page int64) *Paged {
	p := &Paged{Cond: cond, Page: 1}
	if step <= 0 {
		return p
	}
	p.Limit = step
	maxPage := math.MaxInt64 / step
	switch {
	case page < 1:
		p.Page = 1
	case page > maxPage:
		p.Page = maxPage
	default:
		p.Page = page
	}
	return p
}

// Offset is the number of rows skipped.
func (p *Paged) Offset() int64 {
	if p.Limit == 0 {
		return 0
	}
	return p.Limit * (p.Page - 1)
}

func (*Paged) condition() {}

func (p *Paged) Fields() []string {
	if p.Cond == nil {
		return nil
	}
	return p.Cond.Fields()
}

// Clauses fails when there is no condition to page.
func (p *Paged) Clauses(cols Columns, d Dialect) (Clauses, bool) {
	if p.Cond == nil {
		return Clauses{}, false
	}
	c, ok := p.Cond.Clauses(cols, d)
	if !ok {
		return Clauses{}, false
	}
	if p.Limit > 0 {
		c.Limit = strconv.FormatInt(p.Limit, 10)
		if off := p.Offset(); off != 0 {
			c.Offset = strconv.FormatInt(off, 10)
		}
	}
	return c, true
}

func (p *Paged) Export() map[string]ir.Value {
	out := make(map[string]ir.Value)
	if p.Cond != nil {
		maps.Copy(out, p.Cond.Export())
	}
	out["_limit"] = ir.Int(p.Limit)
	out["_page"] = ir.Int(p.Page)
	out["_offset"] = ir.Int(p.Offset())
	return out
}
