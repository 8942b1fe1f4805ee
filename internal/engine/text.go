package engine

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/catsite/internal/ir"
	"github.com/roach88/catsite/internal/macro"
	"github.com/roach88/catsite/internal/shortcode"
)

// macroCode defines a macro: the start delimiter, the stop delimiter,
// then the slot markers, all positional. The body is the unexpanded
// bracketed text, or the variable named by var= at each expansion.
func (e *Engine) macroCode(_ context.Context, c shortcode.Call) string {
	e.define(c)
	return ""
}

func (e *Engine) define(c shortcode.Call) {
	start, _ := c.Attrs.Arg(0)
	stop, _ := c.Attrs.Arg(1)
	var slots []string
	if len(c.Attrs.Pos) > 2 {
		slots = c.Attrs.Pos[2:]
	}
	d, err := macro.NewDefinition(start, stop, slots, c.Body, c.Attrs.GetOr("var", ""))
	if err != nil {
		e.log.Debug("macro not defined", "error", err)
		return
	}
	e.macros.Define(d)
	e.log.Debug("macro defined", "start", start, "stop", stop, "slots", len(slots))
}

// expand expands macros. Positional attributes are start delimiters;
// one with no macro inserts the variable of that name. Without a body the
// delimiters themselves are expanded. passes= repeats the expansion;
// within=1 first defines (and removes) the macro blocks inside the body
// whose start delimiter is being expanded.
func (e *Engine) expand(ctx context.Context, c shortcode.Call) string {
	var starts []string
	for _, s := range c.Attrs.Pos {
		if s != "" {
			starts = append(starts, s)
		}
	}
	if len(starts) == 0 {
		return e.Expand(ctx, c.Body)
	}

	content := c.Body
	if !c.Enclosed {
		content = strings.Join(starts, "")
	}
	if !ir.Empty(ir.String(c.Attrs.GetOr("within", ""))) {
		content = e.defineWithin(content, starts)
	}

	passes := 1
	if v, ok := c.Attrs.Get("passes"); ok {
		passes = int(ir.ParseInt(v))
	}
	content = e.macros.Expand(content, starts, passes, e.vars)
	return e.Expand(ctx, content)
}

// defineWithin defines the macro blocks of text started by one of starts
// and cuts them out.
func (e *Engine) defineWithin(text string, starts []string) string {
	active := make(map[string]bool, len(starts))
	for _, s := range starts {
		active[s] = true
	}

	spans, calls := shortcode.Find(text, e.names[CodeMacro])
	var b strings.Builder
	last := 0
	for i, c := range calls {
		start, _ := c.Attrs.Arg(0)
		if !active[start] {
			continue
		}
		e.define(c)
		b.WriteString(text[last:spans[i][0]])
		last = spans[i][1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// varsCode sets variables: the unexpanded body goes into the variable
// named by the first positional attribute, and each named attribute sets
// the variable of its name.
func (e *Engine) varsCode(_ context.Context, c shortcode.Call) string {
	if name, ok := c.Attrs.Arg(0); ok && c.Enclosed {
		e.vars.SetString(name, c.Body)
	}
	for k, v := range c.Attrs.Named {
		e.vars.SetString(k, v)
	}
	return ""
}

// format fills a format with the positional attributes. The format is
// the body, or else the first positional attribute.
func (e *Engine) format(_ context.Context, c shortcode.Call) string {
	args := c.Attrs.Pos
	if c.Enclosed {
		args = append([]string{c.Body}, args...)
	}
	form := ""
	if len(args) > 0 {
		form, args = args[0], args[1:]
	}
	values := make([]ir.Value, len(args))
	for i, a := range args {
		values[i] = ir.String(a)
	}
	return e.machine.Formats.Call(form, values...)
}

var unspaceRE = regexp.MustCompile(`\s*<>\s*`)

// unspace expands the body, then removes every "<>" marker with the
// whitespace around it.
func (e *Engine) unspace(ctx context.Context, c shortcode.Call) string {
	if !c.Enclosed {
		return ""
	}
	return unspaceRE.ReplaceAllString(e.Expand(ctx, c.Body), "")
}

// textMap adds pairs to a text map. Attributes: the map name (default
// empty), the key separator (default " => ") and the pair separator
// (default newline). Parts of the unexpanded body without a key separator
// are skipped.
func (e *Engine) textMap(_ context.Context, c shortcode.Call) string {
	a := c.Attrs.Fill("name", "sep1", "sep2")
	name := a.GetOr("name", "")
	sep1 := a.GetOr("sep1", " => ")
	sep2 := a.GetOr("sep2", "\n")

	m := e.maps[name]
	if m == nil {
		m = make(map[string]string)
		e.maps[name] = m
	}
	for _, pair := range strings.Split(c.Body, sep2) {
		if k, v, ok := strings.Cut(pair, sep1); ok {
			m[k] = v
		}
	}
	return ""
}

// remap replaces each bracketed key in the body by its text map value;
// keys missing from the map lose their brackets. A closing bracket pairs
// with the last opening one. Attributes: the map name, the left bracket
// (default "_(") and the right bracket (default ")").
func (e *Engine) remap(ctx context.Context, c shortcode.Call) string {
	if !c.Enclosed {
		return ""
	}
	a := c.Attrs.Fill("name", "left", "right")
	m := e.maps[a.GetOr("name", "")]
	left := a.GetOr("left", "_(")
	right := a.GetOr("right", ")")

	parts := splitKeep(c.Body, left, right)
	var b strings.Builder
	for i := 0; i < len(parts); i++ {
		p := parts[i]
		if i%2 == 1 && i+2 < len(parts) && p == left && parts[i+2] == right {
			p = parts[i+1]
			if v, ok := m[p]; ok {
				p = v
			}
			i += 2
		}
		b.WriteString(p)
	}
	return e.Expand(ctx, b.String())
}

// splitKeep splits s around the non-empty delimiters, keeping them: the
// result alternates text and delimiter.
func splitKeep(s string, delims ...string) []string {
	var alts []string
	for _, d := range delims {
		if d != "" {
			alts = append(alts, regexp.QuoteMeta(d))
		}
	}
	if len(alts) == 0 {
		return []string{s}
	}
	re := regexp.MustCompile(strings.Join(alts, "|"))
	var out []string
	last := 0
	for _, m := range re.FindAllStringIndex(s, -1) {
		out = append(out, s[last:m[0]], s[m[0]:m[1]])
		last = m[1]
	}
	return append(out, s[last:])
}

// tableMacro builds table markup from a cell list and stores it in
// variables. Attributes: the table name (default "table"), the header
// line marker (default "H: "), the value line marker (default "V: "), the
// cell separator line (default "---"), stack=, break= and class= (default
// "c").
//
// Outside stacked mode the header row goes into <name>_thead and the data
// row into <name>_tr; a non-empty break adds a hidden header cell before
// each cell. In stacked mode each cell becomes a row of its own, all in
// <name>_rows.
func (e *Engine) tableMacro(_ context.Context, c shortcode.Call) string {
	a := c.Attrs.Fill("name", "header", "value", "next")
	name := a.GetOr("name", "table")
	stack := !ir.Empty(ir.String(a.GetOr("stack", "")))
	brk := a.GetOr("break", "")
	if ir.Empty(ir.String(brk)) {
		brk = ""
	} else if isNumeric(brk) {
		brk = "break"
	}
	class := a.GetOr("class", "c")

	cells := parseCells(c.Body, a.GetOr("header", "H: "), a.GetOr("value", "V: "), a.GetOr("next", "---"))

	head := "<tr>"
	body := "<tr>"
	var rows strings.Builder
	for i, cell := range cells {
		cls := class + strconv.Itoa(i+1)
		h := `<th class="` + cls + `">` + cell.header + `</th>`
		d := `<td class="` + cls + `">` + cell.value + `</td>`
		if stack {
			rows.WriteString(`<tr class="` + cls + `">` + h + d + `</tr>`)
			continue
		}
		if brk != "" {
			head += `<th class="` + brk + ` ` + cls + `"></th>`
			body += `<th class="` + brk + ` ` + cls + `">` + cell.header + `</th>`
		}
		head += h
		body += d
	}

	if stack {
		rows.WriteString("\n")
		e.vars.SetString(name+"_rows", rows.String())
	} else {
		e.vars.SetString(name+"_thead", "<thead>\n"+head+"</tr>\n</thead>\n")
		e.vars.SetString(name+"_tr", body+"</tr>\n")
	}
	return ""
}

type cell struct {
	header string
	value  string
}

// parseCells reads the cell list of a tablemacro. A header or value line
// starts its part; other lines continue the current part, joined by a
// space; a separator line ends the cell. Lines before any marker form
// the value when no value line follows.
func parseCells(text, header, value, next string) []cell {
	lines := strings.Split(text, "\n")
	if last := lines[len(lines)-1]; ir.Empty(ir.String(last)) {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > 0 && ir.Empty(ir.String(lines[0])) {
		lines = lines[1:]
	}
	lines = append(lines, next)

	var cells []cell
	parts := map[string]string{}
	field := ""
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, header):
			field = "header"
			parts[field] = line[len(header):]
		case strings.HasPrefix(line, value):
			delete(parts, "")
			field = "value"
			parts[field] = line[len(value):]
		case strings.HasPrefix(line, next):
			if len(parts) > 0 {
				v, ok := parts["value"]
				if !ok {
					v = parts[""]
				}
				cells = append(cells, cell{header: parts["header"], value: v})
			}
			parts = map[string]string{}
			field = ""
		default:
			if p, ok := parts[field]; ok {
				parts[field] = p + " " + line
			} else {
				parts[field] = line
			}
		}
	}
	return cells
}

// isNumeric reports whether s reads as a number.
func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}
