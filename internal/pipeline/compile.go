package pipeline

import (
	"strconv"
	"strings"

	"github.com/roach88/catsite/internal/ir"
	"github.com/roach88/catsite/internal/mask"
)

// prefixes are the transforms that carry an inline parameter, tried in order.
var prefixes = []struct {
	text string
	op   Opcode
}{
	{"%", OpFormat},
	{"??", OpNullReplace},
	{"()?", OpEmptyReplace},
	{"? ", OpFullReplace},
	{"every ", OpEvery},
	{"is ", OpIs},
	{"remap ", OpRemap},
	{"match ", OpMatch},
	{"+", OpAdd},
	{"max ", OpMax},
	{"into ", OpStore},
	{"percent", OpPercent},
}

// keywords are the parameterless transforms, matched exactly.
var keywords = map[string]Opcode{
	"?":        OpEmptyStop,
	"url":      OpURLEncode,
	"htm":      OpHTML,
	"html":     OpHTML,
	"remap":    OpRemap,
	"emscolor": OpEMSColor,
	"link":     OpLink,
}

// Compiler turns pipeline text into instruction sequences and memoizes the
// result by text. A Compiler belongs to one render and is not safe for
// concurrent use.
type Compiler struct {
	cache map[string]Sequence
	masks *mask.Cache
}

// NewCompiler returns a compiler that compiles "match" masks through masks.
// A nil cache gets a private one.
func NewCompiler(masks *mask.Cache) *Compiler {
	if masks == nil {
		masks = mask.NewCache()
	}
	return &Compiler{
		cache: make(map[string]Sequence),
		masks: masks,
	}
}

// Len returns the number of memoized sequences.
func (c *Compiler) Len() int { return len(c.cache) }

// Compile returns the sequence for expr, "source|t1|t2|...". Compilation
// never fails: the first unrecognized transform ends the pipeline and the
// rest of the text is ignored.
func (c *Compiler) Compile(expr string) Sequence {
	if seq, ok := c.cache[expr]; ok {
		return seq
	}
	seq := c.compile(expr)
	c.cache[expr] = seq
	return seq
}

func (c *Compiler) compile(expr string) Sequence {
	pipe := strings.Split(expr, "|")
	key := pipe[0]

	var seq Sequence
	switch {
	case !strings.HasPrefix(key, "="):
		seq = append(seq, Instruction{Op: OpGetField, Name: key})
	case !strings.HasPrefix(key[1:], "="):
		seq = append(seq, Instruction{Op: OpGetVar, Name: key[1:]})
	default:
		seq = append(seq, Instruction{Op: OpString, Value: ir.String(key[2:])})
	}

	for _, cmd := range pipe[1:] {
		op, rest, prefixed := lookup(cmd)
		switch op {
		case OpNothing:
			return seq

		case OpNullReplace, OpEmptyReplace, OpFullReplace:
			seq = append(seq, operand(rest, false), Instruction{Op: op})

		case OpFormat:
			if len(cmd) < 2 {
				continue
			}
			seq = append(seq,
				Instruction{Op: OpConst, Value: ir.String(cmd)},
				Instruction{Op: OpFormat})

		case OpEvery, OpIs, OpAdd, OpMax:
			seq = append(seq, operand(trim(rest), true), Instruction{Op: op})

		case OpEmptyStop, OpURLEncode, OpHTML, OpEMSColor, OpLink:
			seq = append(seq, Instruction{Op: op})

		case OpRemap:
			name := ""
			if prefixed {
				name = trim(rest)
			}
			seq = append(seq, Instruction{Op: OpRemap, Name: name})

		case OpMatch:
			seq = append(seq, Instruction{Op: OpMatch, Pattern: c.masks.Get(rest)})

		case OpStore:
			return append(seq, Instruction{Op: OpStore, Name: rest})

		case OpPercent:
			seq = append(seq, percent(trim(rest)))
		}
	}
	return seq
}

// lookup classifies one transform. Prefix matching is ASCII
// case-insensitive; rest is the original-case text after the prefix.
func lookup(cmd string) (op Opcode, rest string, prefixed bool) {
	lc := asciiLower(cmd)
	for _, p := range prefixes {
		if strings.HasPrefix(lc, p.text) {
			return p.op, cmd[len(p.text):], true
		}
	}
	return keywords[lc], "", false
}

// operand loads a transform parameter: "=name" reads a variable, anything
// else is a constant, an integer when numeric is set.
func operand(c string, numeric bool) Instruction {
	if strings.HasPrefix(c, "=") {
		return Instruction{Op: OpVar, Name: c[1:]}
	}
	if numeric {
		return Instruction{Op: OpConst, Value: ir.Int(ir.ParseInt(c))}
	}
	return Instruction{Op: OpConst, Value: ir.String(c)}
}

// percent derives the scale from the digit count of the parameter: "100"
// shows two decimals, anything of one digit (or none) shows whole numbers.
func percent(param string) Instruction {
	n := ir.ParseInt(param)
	digits := strconv.FormatInt(n, 10)
	digits = strings.TrimPrefix(digits, "-")
	k := len(digits) - 1
	if k <= 0 {
		return Instruction{Op: OpPercent, Divisor: 1}
	}
	div := int64(1)
	for range k {
		div *= 10
	}
	return Instruction{Op: OpPercent, Divisor: div, Digits: k}
}

func trim(s string) string {
	return strings.Trim(s, " \t\n\r\x00\x0B")
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
