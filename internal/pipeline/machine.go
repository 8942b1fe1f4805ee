package pipeline

import (
	"strconv"

	"github.com/roach88/catsite/internal/ir"
)

// Fields resolves field references of the row being rendered.
type Fields interface {
	Field(ref string) ir.Value
}

// Binding resolves field references through an alias map into one row.
// References missing from Aliases resolve to Null.
type Binding struct {
	Aliases map[string]string
	Row     ir.Row
}

// Field implements Fields.
func (b Binding) Field(ref string) ir.Value {
	alias, ok := b.Aliases[ref]
	if !ok || alias == "" {
		return ir.Null{}
	}
	return b.Row.Get(alias)
}

// NoFields resolves every reference to Null. It is used where a pipeline is
// evaluated outside of any result row.
var NoFields Fields = Binding{}

// TextMaps holds the named key-to-text tables used by "remap".
type TextMaps map[string]map[string]string

// Machine executes compiled sequences against a variable namespace.
// Executing a sequence may write variables ("into") and fill the EMS cache,
// so a Machine is not safe for concurrent use.
type Machine struct {
	Vars    ir.Vars
	Maps    TextMaps
	Formats *Formatter

	ems map[string]string
}

// NewMachine wires a machine to the render's namespace, text maps and
// formatter. Nil arguments get empty defaults.
func NewMachine(vars ir.Vars, maps TextMaps, formats *Formatter) *Machine {
	if vars == nil {
		vars = ir.Vars{}
	}
	if maps == nil {
		maps = TextMaps{}
	}
	if formats == nil {
		formats = NewFormatter(".")
	}
	return &Machine{
		Vars:    vars,
		Maps:    maps,
		Formats: formats,
		ems:     make(map[string]string),
	}
}

// state is the register file of one execution.
type state struct {
	v        ir.Value // current value
	w        ir.Value // operand register
	variable bool     // v behaves like a variable (tests use emptiness)
	escape   bool     // v still needs HTML escaping on output
	dest     string
	store    bool
}

func (m *Machine) exec(seq Sequence, row Fields) state {
	s := state{v: ir.Null{}, w: ir.Null{}}

loop:
	for _, in := range seq {
		switch in.Op {
		case OpConst:
			s.w = in.Value
		case OpVar:
			s.w = m.Vars.Get(in.Name)

		case OpGetField:
			s.v = row.Field(in.Name)
			s.variable = false
			s.escape = ir.IsString(s.v)
		case OpGetVar:
			s.v = m.Vars.Get(in.Name)
			s.variable, s.escape = true, false
		case OpString:
			s.v = in.Value
			s.variable, s.escape = true, false

		case OpEmptyStop:
			if !ir.Empty(s.v) {
				continue
			}
			s.v = ir.String("")
			s.variable, s.escape = true, false
			break loop
		case OpNullReplace:
			if ir.IsSet(s.v) {
				continue
			}
			s.replace()
		case OpEmptyReplace:
			if ir.ToString(s.v) != "" {
				continue
			}
			s.replace()
		case OpFullReplace:
			// Replaces only an empty value; a non-empty one passes through.
			if ir.Empty(s.v) {
				s.replace()
			}
			s.variable = true

		case OpFormat:
			s.v = ir.String(m.Formats.Apply(ir.ToString(s.w), s.output()))
			s.variable, s.escape = true, false
		case OpURLEncode:
			s.v = ir.String(EscapeURL(ir.ToString(s.v)))
			s.variable, s.escape = true, false
		case OpHTML:
			s.v = ir.String(EscapeHTML(ir.ToString(s.v)))
			s.variable, s.escape = true, false
		case OpLink:
			s.v = ir.String(EscapeLink(ir.ToString(s.v)))
			s.variable, s.escape = true, false

		case OpEvery:
			// True when n is NOT a multiple of d, or either is zero.
			n, d := ir.ToInt(s.v), ir.ToInt(s.w)
			s.v = flag(n == 0 || d == 0 || n%d != 0)
			s.variable, s.escape = true, false
		case OpIs:
			s.v = flag(ir.ToInt(s.v) == ir.ToInt(s.w))
			s.variable, s.escape = true, false
		case OpAdd:
			s.v = ir.Int(ir.ToInt(s.v) + ir.ToInt(s.w))
			s.variable, s.escape = true, false
		case OpMax:
			s.v = ir.Int(min(ir.ToInt(s.v), ir.ToInt(s.w)))
			s.variable, s.escape = true, false

		case OpRemap:
			key := ir.ToString(s.v)
			s.v = ir.String(key)
			if text, ok := m.Maps[in.Name][key]; ok {
				s.v = ir.String(text)
				s.escape = false
			}
			s.variable = true
		case OpMatch:
			s.v = flag(in.Pattern != nil && in.Pattern.MatchString(ir.ToString(s.v)))
			s.variable, s.escape = true, false
		case OpEMSColor:
			s.v = ir.String(m.emsColor(ir.ToString(s.v)))
			s.variable, s.escape = true, false
		case OpPercent:
			n := ir.ToInt(s.v)
			if in.Digits > 0 {
				s.v = ir.String(strconv.FormatFloat(float64(n)/float64(in.Divisor), 'f', in.Digits, 64) + "%")
			} else {
				s.v = ir.String(strconv.FormatInt(n, 10) + "%")
			}
			s.variable, s.escape = true, true

		case OpStore:
			s.dest, s.store = in.Name, true
			break loop
		}
	}
	return s
}

// replace moves the operand into the current value.
func (s *state) replace() {
	s.v = s.w
	if !ir.IsSet(s.v) {
		s.v = ir.String("")
	}
	s.variable, s.escape = true, false
}

// output is the current value as text output sees it: unset values are
// empty and raw field text is escaped.
func (s *state) output() ir.Value {
	switch {
	case !ir.IsSet(s.v):
		return ir.String("")
	case s.escape:
		return ir.String(EscapeHTML(ir.ToString(s.v)))
	default:
		return s.v
	}
}

// Value runs seq in text mode and returns what the directive renders to.
// A non-empty string in the "%" variable formats every result. A sequence
// ending in "into" stores the result and renders as the empty string.
func (m *Machine) Value(seq Sequence, row Fields) ir.Value {
	s := m.exec(seq, row)
	out := s.output()
	if form, ok := m.Vars.Get("%").(ir.String); ok && form != "" {
		out = ir.String(m.Formats.Apply(string(form), out))
	}
	if s.store {
		m.Vars.Set(s.dest, out)
		return ir.String("")
	}
	return out
}

// Fails runs seq in condition mode. It reports whether the tested value
// counts as absent: variable-like results fail when empty, raw fields fail
// only when unset.
func (m *Machine) Fails(seq Sequence, row Fields) bool {
	s := m.exec(seq, row)
	failed := !ir.IsSet(s.v)
	if s.variable {
		failed = ir.Empty(s.v)
	}
	if s.store {
		m.Vars.Set(s.dest, flag(failed))
	}
	return failed
}

func (m *Machine) emsColor(code string) string {
	if text, ok := m.ems[code]; ok {
		return text
	}
	text := DecodeEMS(code)
	m.ems[code] = text
	return text
}

func flag(b bool) ir.Int {
	if b {
		return 1
	}
	return 0
}
