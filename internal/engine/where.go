package engine

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/roach88/catsite/internal/ir"
	"github.com/roach88/catsite/internal/queryir"
	"github.com/roach88/catsite/internal/querysql"
	"github.com/roach88/catsite/internal/shortcode"
)

// whereInit builds a condition from a setter's attributes and expanded
// body.
type whereInit func(ctx context.Context, a shortcode.Attrs, body string) (querysql.Condition, error)

// whereSetter wraps a condition builder into a shortcode handler. The new
// condition replaces the active one for the blocks that follow and its
// exported values are set as variables. A failed build clears the active
// condition.
func (e *Engine) whereSetter(init whereInit) shortcode.Handler {
	return func(ctx context.Context, c shortcode.Call) string {
		body := c.Body
		if body != "" {
			body = e.Expand(ctx, body)
		}
		e.applyWhere(init(ctx, c.Attrs, body))
		return ""
	}
}

func (e *Engine) applyWhere(cond querysql.Condition, err error) {
	if err != nil {
		e.log.Debug("where condition unavailable", "error", err)
		e.where = nil
		return
	}
	e.where = cond
	e.vars.Merge(cond.Export())
}

// index reads the integer a condition compares with: the value attribute,
// else the source named by from= ("page", the default, reads the "_page"
// option; "key" reads the "_key" option), else 1.
func (e *Engine) index(a shortcode.Attrs) int64 {
	if v, ok := a.Get("value"); ok {
		return ir.ParseInt(v)
	}
	switch a.GetOr("from", "page") {
	case "key":
		return ir.ParseInt(e.keyOption("1"))
	case "page":
		if v, ok := e.option("_page"); ok {
			return ir.ParseInt(v)
		}
	}
	return 1
}

// whereID matches the row whose primary key equals the index.
// Attributes: the value, from=.
func (e *Engine) whereID(_ context.Context, a shortcode.Attrs, _ string) (querysql.Condition, error) {
	a = a.Fill("value")
	return querysql.ByID{PrimaryKey: e.site.PrimaryKey, Value: e.index(a)}, nil
}

// whereLetter1 matches the rows whose field starts with a letter.
// Attributes: the field, the letter (default the "_key" option, else "A").
func (e *Engine) whereLetter1(_ context.Context, a shortcode.Attrs, _ string) (querysql.Condition, error) {
	a = a.Fill("field", "value")
	field, ok := a.Get("field")
	if !ok {
		return nil, fmt.Errorf("%w: where_letter1 needs a field", querysql.ErrConditionUnavailable)
	}
	value := a.GetOr("value", e.keyOption("A"))
	return querysql.NewByLetter(e.site.PrimaryKey, field, e.site.Letter1Prefix, value), nil
}

// whereMatch matches the other rows sharing the listed fields' values
// with the current row (index _idx) of the last result set. The body
// lists the fields. Attributes: the sort field, nulls=1 to allow NULL
// values.
func (e *Engine) whereMatch(_ context.Context, a shortcode.Attrs, body string) (querysql.Condition, error) {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: where_match lists no fields", querysql.ErrConditionUnavailable)
	}
	a = a.Fill("sort")
	nulls := !ir.Empty(ir.String(a.GetOr("nulls", "")))

	row := e.resultRow(e.intVar("_idx", 0))
	pk := e.site.PrimaryKey
	values := make(map[string]ir.Value, len(fields)+1)
	for _, f := range append(fields, pk) {
		v := row.Get(queryir.ColumnAlias(f))
		if !ir.IsSet(v) && !nulls {
			return nil, fmt.Errorf("%w: %s has no value in the current row", querysql.ErrConditionUnavailable, f)
		}
		values[f] = v
	}
	return querysql.NewBySibling(pk, fields, values, a.GetOr("sort", ""), nulls)
}

// whereKey matches the rows whose field equals the index. Attributes: the
// field, the value, the sort field, from=.
func (e *Engine) whereKey(_ context.Context, a shortcode.Attrs, _ string) (querysql.Condition, error) {
	a = a.Fill("field", "value", "sort")
	field, ok := a.Get("field")
	if !ok {
		return nil, fmt.Errorf("%w: where_key needs a field", querysql.ErrConditionUnavailable)
	}
	return querysql.ByKey{
		PrimaryKey: e.site.PrimaryKey,
		Field:      field,
		Sort:       a.GetOr("sort", ""),
		Value:      e.index(a),
	}, nil
}

// paged pages the active condition. Attributes: the step (default
// per_page; 0 means no limit) and the page (default the "_page" option,
// else 1). Paging a paged condition replaces its paging.
func (e *Engine) paged(_ context.Context, a shortcode.Attrs, _ string) (querysql.Condition, error) {
	a = a.Fill("step", "page")

	var step int64
	if v, ok := a.Get("step"); ok {
		step = ir.ParseInt(v)
	} else {
		step = int64(e.site.PerPage)
	}

	page := int64(1)
	if v, ok := a.Get("page"); ok {
		page = ir.ParseInt(v)
	} else if v, ok := e.option("_page"); ok {
		page = ir.ParseInt(v)
	}

	base := e.where
	if p, ok := base.(*querysql.Paged); ok {
		base = p.Cond
	}
	return querysql.NewPaged(base, step, page), nil
}

// fillVars fills named attributes from positional ones like Attrs.Fill,
// then replaces each of those that is a "${=var...}" read by its value.
func (e *Engine) fillVars(a shortcode.Attrs, names ...string) shortcode.Attrs {
	a = a.Fill(names...)
	for _, n := range names {
		v, ok := a.Named[n]
		if !ok || !strings.HasPrefix(v, "${=") {
			continue
		}
		end := strings.IndexAny(v[2:], "{}")
		if end < 0 || v[2+end] != '}' {
			continue
		}
		a.Named[n] = ir.ToString(e.interp.Eval(v[2 : 2+end]))
	}
	return a
}

// urlDecode decodes a path segment, keeping it as is when malformed.
func urlDecode(s string) string {
	if d, err := url.PathUnescape(s); err == nil {
		return d
	}
	return s
}
