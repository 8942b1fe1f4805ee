package engine

import (
	"context"

	"github.com/roach88/catsite/internal/interp"
	"github.com/roach88/catsite/internal/ir"
	"github.com/roach88/catsite/internal/queryir"
	"github.com/roach88/catsite/internal/querysql"
	"github.com/roach88/catsite/internal/shortcode"
)

// source produces the rows of an interpolating block from the field
// references of its body. ok is false when the block reads no data; the
// body is then rendered once against an empty row.
type source func(ctx context.Context, fields []string, a shortcode.Attrs) (b interp.Batch, ok bool)

// interpolator wraps a data source into a shortcode handler.
//
// Common attributes: cache=<var> reuses the rendering stored in that
// variable, or stores it there after rendering; into=<var> stores the
// rendering in a variable instead of emitting it.
func (e *Engine) interpolator(src source) shortcode.Handler {
	return func(ctx context.Context, c shortcode.Call) string {
		into, hasInto := c.Attrs.Get("into")
		slot, hasSlot := c.Attrs.Get("cache")
		if hasSlot && e.vars.Has(slot) {
			v := e.vars.Get(slot)
			if !hasInto {
				return ir.ToString(v)
			}
			e.vars.Set(into, v)
			return ""
		}
		if !c.Enclosed {
			return ""
		}

		content := c.Body
		if t := interp.Parse(content); t.HasDirectives() {
			b, ok := src(ctx, t.Fields(), c.Attrs)
			if !ok {
				b = interp.Single()
			}
			content = e.interp.Render(t, b)
		}
		content = e.Expand(ctx, content)

		if hasSlot {
			e.vars.SetString(slot, content)
		}
		if !hasInto {
			return content
		}
		e.vars.SetString(into, content)
		return ""
	}
}

// table picks the block's table: the named one if the schema has it,
// else the first table.
func (e *Engine) table(a shortcode.Attrs) string {
	return e.schema.Root(a.GetOr("table", ""))
}

// run executes q and makes its rows the last result set.
func (e *Engine) run(ctx context.Context, q querysql.Query) interp.Batch {
	for _, f := range q.Dropped {
		e.log.Debug("field dropped from query", "field", f)
	}
	b := interp.Batch{Aliases: q.Aliases, Rows: e.query(ctx, q.SQL)}
	e.results, e.hasResults = b, true
	return b
}

// tableSource reads the requested fields of the rows matching the active
// condition. Attributes: the root table ("table=" or the first unnamed).
func (e *Engine) tableSource(ctx context.Context, fields []string, a shortcode.Attrs) (interp.Batch, bool) {
	a = a.Fill("table")
	q, ok := querysql.Select(e.schema, e.table(a), fields, e.site.PrimaryKey, e.where, e.dialect)
	if !ok {
		for _, f := range q.Dropped {
			e.log.Debug("field dropped from query", "field", f)
		}
		return interp.Batch{}, false
	}
	return e.run(ctx, q), true
}

// totalsSource counts and sums over the rows matching the active
// condition. Attributes: the table, the mode ("count" counts plain fields
// instead of summing them) and the name of the row count, default "_c".
func (e *Engine) totalsSource(ctx context.Context, fields []string, a shortcode.Attrs) (interp.Batch, bool) {
	a = a.Fill("table", "mode", "_c")
	t := querysql.Totals{
		CountName: a.GetOr("_c", querysql.CountAlias),
		CountAll:  a.GetOr("mode", "") == "count",
	}
	q, ok := querysql.TotalsSelect(e.schema, e.table(a), fields, e.site.PrimaryKey, e.where, t, e.dialect)
	if !ok {
		return interp.Batch{}, false
	}
	return e.run(ctx, q), true
}

// alphabetSource lists the first letters of a field. Attributes: the
// table, the field, then the template names of the letter, count and
// equality columns (default "_a", "_c", "_e"); test= is the letter the
// equality column compares with, default the "_key" option.
func (e *Engine) alphabetSource(ctx context.Context, fields []string, a shortcode.Attrs) (interp.Batch, bool) {
	a = a.Fill("table", "field", querysql.LetterAlias, querysql.CountAlias, querysql.EqualAlias)
	field, ok := a.Get("field")
	if !ok {
		return interp.Batch{}, false
	}

	requested := make(map[string]bool, len(fields))
	for _, f := range fields {
		requested[f] = true
	}
	aliases := make(map[string]string)
	wanted := make(map[string]bool)
	for _, col := range []string{querysql.LetterAlias, querysql.CountAlias, querysql.EqualAlias} {
		name := a.GetOr(col, col)
		if requested[name] {
			aliases[name] = col
			wanted[col] = true
		}
	}
	if len(aliases) == 0 {
		return interp.Batch{}, false
	}

	spec := querysql.Alphabet{
		Count: wanted[querysql.CountAlias],
		Equal: wanted[querysql.EqualAlias],
	}
	if spec.Equal {
		spec.Test = a.GetOr("test", e.keyOption("A"))
	}
	sql, ok := querysql.AlphabetSelect(e.schema, e.table(a), field, e.site.PrimaryKey, e.site.Letter1Prefix, spec, e.dialect)
	if !ok {
		return interp.Batch{}, false
	}
	return e.run(ctx, querysql.Query{SQL: sql, Aliases: aliases}), true
}

// loopSource repeats the first row of the last result set for the indices
// from, from+step, ... up to to, at most per_page times. Attributes:
// from, to and step, each possibly a "${=var}" read; without from, the
// _from, _to and _step variables are used. A step of 0 counts as 1; a
// step pointing away from to yields no rows.
func (e *Engine) loopSource(_ context.Context, fields []string, a shortcode.Attrs) (interp.Batch, bool) {
	a = e.fillVars(a, "from", "to", "step")

	var from, to, step int64
	if v, ok := a.Get("from"); ok {
		from = ir.ParseInt(v)
		to = ir.ParseInt(a.GetOr("to", "1"))
		step = ir.ParseInt(a.GetOr("step", "1"))
	} else {
		from = e.intVar("_from", 1)
		to = e.intVar("_to", 1)
		step = e.intVar("_step", 1)
	}
	if step == 0 {
		step = 1
	}

	if (to < from && step > 0) || (to > from && step < 0) {
		b := interp.Batch{Rows: []ir.Row{}}
		e.results, e.hasResults = b, true
		return b, true
	}

	n := loopCount(from, to, step, int64(e.site.PerPage))

	row, aliases := e.firstRow(fields)
	b := interp.Batch{
		Aliases: aliases,
		Rows:    make([]ir.Row, n),
		Index:   make([]int64, n),
	}
	for i := int64(0); i < n; i++ {
		b.Rows[i] = row
		b.Index[i] = from + step*i
	}

	e.vars.SetInt("_from", from)
	e.vars.SetInt("_to", to)
	e.vars.SetInt("_step", step)
	e.results, e.hasResults = b, true
	return b, true
}

// loopCount is the number of indices from, from+step, ... not past to,
// capped at limit. A limit below 1 allows no rows. to lies in the
// direction of step from from.
func loopCount(from, to, step, limit int64) int64 {
	if limit <= 0 {
		return 0
	}
	// The span and the step magnitude fit in uint64 for any int64 bounds.
	var span, stride uint64
	if step > 0 {
		span, stride = uint64(to)-uint64(from), uint64(step)
	} else {
		span, stride = uint64(from)-uint64(to), uint64(-(step+1))+1
	}
	if q := span / stride; q < uint64(limit) {
		return int64(q) + 1
	}
	return limit
}

// onceSource renders the first row of the last result set once, with
// index 0.
func (e *Engine) onceSource(_ context.Context, fields []string, _ shortcode.Attrs) (interp.Batch, bool) {
	row, aliases := e.firstRow(fields)
	b := interp.Batch{Aliases: aliases, Rows: []ir.Row{row}, Index: []int64{0}}

	e.vars.SetInt("_from", 0)
	e.vars.SetInt("_to", 0)
	e.vars.SetInt("_step", 1)
	e.results, e.hasResults = b, true
	return b, true
}

// firstRow returns the first row of the last result set and the aliases
// reading fields from it by their column names.
func (e *Engine) firstRow(fields []string) (ir.Row, map[string]string) {
	if !e.hasResults || len(e.results.Rows) == 0 || len(e.results.Rows[0]) == 0 {
		return ir.Row{}, nil
	}
	aliases := make(map[string]string, len(fields))
	for _, f := range fields {
		aliases[f] = queryir.ColumnAlias(f)
	}
	return e.results.Rows[0], aliases
}

// resultRow returns the row of the last result set with index idx.
func (e *Engine) resultRow(idx int64) ir.Row {
	if !e.hasResults {
		return ir.Row{}
	}
	for i, row := range e.results.Rows {
		at := int64(i)
		if e.results.Index != nil {
			at = e.results.Index[i]
		}
		if at == idx {
			return row
		}
	}
	return ir.Row{}
}

// intVar reads an integer variable, def when unset.
func (e *Engine) intVar(name string, def int64) int64 {
	if !e.vars.Has(name) {
		return def
	}
	return ir.ToInt(e.vars.Get(name))
}
