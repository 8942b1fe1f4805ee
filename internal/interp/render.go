package interp

import (
	"strings"

	"github.com/roach88/catsite/internal/ir"
	"github.com/roach88/catsite/internal/pipeline"
)

// Batch is the data a template is rendered against.
type Batch struct {
	// Aliases maps field references to result columns.
	Aliases map[string]string

	// Rows are rendered in order.
	Rows []ir.Row

	// Index holds the index of each row. When nil, rows are numbered
	// from 0.
	Index []int64
}

// Single is the batch used when a template reads no data: one empty row
// with index 0.
func Single() Batch {
	return Batch{Rows: []ir.Row{{}}}
}

func (b Batch) index(i int) int64 {
	if b.Index != nil {
		return b.Index[i]
	}
	return int64(i)
}

// Interpolator renders templates through a shared compiler and machine, so
// compiled pipelines and variables persist across templates of one render.
type Interpolator struct {
	compiler *pipeline.Compiler
	machine  *pipeline.Machine
}

// New returns an interpolator over c and m.
func New(c *pipeline.Compiler, m *pipeline.Machine) *Interpolator {
	return &Interpolator{compiler: c, machine: m}
}

// Render renders t once per row of b and concatenates the results. The
// variables _min, _max and _count describe the batch; _idx, _first and
// _last describe the current row.
func (ip *Interpolator) Render(t *Template, b Batch) string {
	vars := ip.machine.Vars
	n := len(b.Rows)
	if n == 0 {
		vars.Set("_min", ir.Null{})
		vars.Set("_max", ir.Null{})
		vars.SetInt("_count", 0)
		return ""
	}
	first, last := b.index(0), b.index(n-1)
	vars.SetInt("_min", first)
	vars.SetInt("_max", last)
	vars.SetInt("_count", int64(n))

	var out strings.Builder
	for i, row := range b.Rows {
		idx := b.index(i)
		vars.SetInt("_idx", idx)
		vars.SetInt("_first", boolInt(idx == first))
		vars.SetInt("_last", boolInt(idx == last))
		ip.row(&out, t, pipeline.Binding{Aliases: b.Aliases, Row: row})
	}
	return out.String()
}

// row renders one row. depth counts the conditionals being skipped.
func (ip *Interpolator) row(out *strings.Builder, t *Template, fields pipeline.Fields) {
	depth := 0
	for _, tok := range t.Tokens {
		if depth > 0 {
			switch tok.Kind {
			case EndIf:
				depth--
			case Else:
				if depth > 1 {
					continue
				}
				depth = 0
			case If:
				depth++
			}
			continue
		}

		switch tok.Kind {
		case Text:
			out.WriteString(tok.Text)
		case Else:
			depth = 1
		case EndIf:
		case Set:
			ip.machine.Vars.Set(tok.Name, tok.Const)
		case Assign, Modify:
			ip.machine.Vars.Set(tok.Name, ip.machine.Value(ip.compiler.Compile(tok.Expr), fields))
		case If:
			if ip.machine.Fails(ip.compiler.Compile(tok.Expr), fields) != tok.Negative {
				depth = 1
			}
		case Value:
			out.WriteString(ir.ToString(ip.machine.Value(ip.compiler.Compile(tok.Expr), fields)))
		}
	}
}

// Eval renders a single pipeline outside of any row.
func (ip *Interpolator) Eval(expr string) ir.Value {
	return ip.machine.Value(ip.compiler.Compile(expr), pipeline.NoFields)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
