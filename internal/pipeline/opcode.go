package pipeline

import (
	"fmt"
	"regexp"

	"github.com/roach88/catsite/internal/ir"
)

// Opcode identifies one step of a compiled pipeline.
type Opcode uint8

const (
	OpNothing      Opcode = iota
	OpConst               // load Value into the operand register
	OpVar                 // load variable Name into the operand register
	OpGetField            // v = field Name of the current row
	OpGetVar              // v = variable Name
	OpString              // v = literal Value
	OpEmptyStop           // "?"
	OpNullReplace         // "??"
	OpEmptyReplace        // "()?"
	OpFullReplace         // "? "
	OpFormat              // "%..."
	OpURLEncode           // "url"
	OpHTML                // "htm", "html"
	OpEvery               // "every N"
	OpIs                  // "is N"
	OpAdd                 // "+N"
	OpMax                 // "max N"
	OpRemap               // "remap name"
	OpMatch               // "match mask"
	OpEMSColor            // "emscolor"
	OpStore               // "into name"
	OpPercent             // "percentN"
	OpLink                // "link"
)

var opcodeNames = [...]string{
	OpNothing:      "Nothing",
	OpConst:        "Const",
	OpVar:          "Var",
	OpGetField:     "GetField",
	OpGetVar:       "GetVar",
	OpString:       "String",
	OpEmptyStop:    "EmptyStop",
	OpNullReplace:  "NullReplace",
	OpEmptyReplace: "EmptyReplace",
	OpFullReplace:  "FullReplace",
	OpFormat:       "Format",
	OpURLEncode:    "URLEncode",
	OpHTML:         "HTML",
	OpEvery:        "Every",
	OpIs:           "Is",
	OpAdd:          "Add",
	OpMax:          "Max",
	OpRemap:        "Remap",
	OpMatch:        "Match",
	OpEMSColor:     "EMSColor",
	OpStore:        "Store",
	OpPercent:      "Percent",
	OpLink:         "Link",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", op)
}

// Instruction is one opcode with its operands. Which operand fields are
// meaningful depends on Op.
type Instruction struct {
	Op Opcode

	// Name is a field reference, variable, text-map or store target.
	Name string

	// Value is the literal loaded by OpConst and OpString.
	Value ir.Value

	// Pattern is the compiled mask of OpMatch; nil never matches.
	Pattern *regexp.Regexp

	// Divisor and Digits parameterize OpPercent.
	Divisor int64
	Digits  int
}

func (in Instruction) String() string {
	switch in.Op {
	case OpConst, OpString:
		return fmt.Sprintf("%s %#v", in.Op, in.Value)
	case OpVar, OpGetField, OpGetVar, OpRemap, OpStore:
		return fmt.Sprintf("%s %q", in.Op, in.Name)
	case OpMatch:
		if in.Pattern == nil {
			return "Match <invalid>"
		}
		return "Match " + in.Pattern.String()
	case OpPercent:
		return fmt.Sprintf("Percent /%d .%d", in.Divisor, in.Digits)
	default:
		return in.Op.String()
	}
}

// Sequence is a compiled pipeline. Sequences are immutable once built.
type Sequence []Instruction

// Disassemble renders one instruction per line.
func (s Sequence) Disassemble() string {
	var out []byte
	for i, in := range s {
		out = fmt.Appendf(out, "%02d %s\n", i, in)
	}
	return string(out)
}
