package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/catsite/internal/engine"
	"github.com/roach88/catsite/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Outputs  []string // All outputs for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Outputs) > 0 {
		fmt.Fprintf(&buf, "\nOutputs:\n")
		for i, out := range e.Outputs {
			fmt.Fprintf(&buf, "  [%d] %q\n", i, out)
		}
	}

	return buf.String()
}

// assertOutput checks the output of one flow step.
func assertOutput(outputs []string, a Assertion) error {
	if a.Step < 0 || a.Step >= len(outputs) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("output of step %d", a.Step),
			Actual:   fmt.Sprintf("%d steps rendered", len(outputs)),
		}
	}
	out := outputs[a.Step]

	var ok bool
	var expected string
	if a.Type == AssertOutputEquals {
		ok = out == a.Text
		expected = fmt.Sprintf("step %d renders %q", a.Step, a.Text)
	} else {
		ok = strings.Contains(out, a.Text)
		expected = fmt.Sprintf("step %d contains %q", a.Step, a.Text)
	}
	if ok {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: expected,
		Actual:   fmt.Sprintf("%q", out),
		Outputs:  outputs,
	}
}

// assertVar checks a variable of the final namespace. Values compare as
// rendered text.
func assertVar(vars ir.Vars, a Assertion) error {
	set := vars.Has(a.Name)
	if a.Type == AssertVarUnset {
		if !set {
			return nil
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s unset", a.Name),
			Actual:   fmt.Sprintf("%s = %q", a.Name, ir.ToString(vars.Get(a.Name))),
		}
	}

	if !set {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s = %q", a.Name, a.Value),
			Actual:   fmt.Sprintf("%s unset", a.Name),
		}
	}
	if got := ir.ToString(vars.Get(a.Name)); got != a.Value {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s = %q", a.Name, a.Value),
			Actual:   fmt.Sprintf("%s = %q", a.Name, got),
		}
	}
	return nil
}

// assertResultCount checks the size of the last result set.
func assertResultCount(e *engine.Engine, a Assertion) error {
	b, ok := e.Results()
	n := len(b.Rows)
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d rows", a.Count),
			Actual:   "no result set",
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d rows", a.Count),
			Actual:   fmt.Sprintf("%d rows", n),
		}
	}
	return nil
}

// AssertionContext provides the engine state assertions read.
type AssertionContext struct {
	Engine *engine.Engine
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// State assertions need actx; output assertions do not.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertOutputContains, AssertOutputEquals:
			err = assertOutput(result.Outputs, assertion)
		case AssertVarEquals, AssertVarUnset, AssertResultCount, AssertWhereCleared:
			if actx == nil || actx.Engine == nil {
				err = fmt.Errorf("assertion[%d]: %s requires engine context", i, assertion.Type)
				break
			}
			switch assertion.Type {
			case AssertResultCount:
				err = assertResultCount(actx.Engine, assertion)
			case AssertWhereCleared:
				if actx.Engine.Where() != nil {
					err = &AssertionError{Type: assertion.Type, Expected: "no active condition", Actual: "a condition is active"}
				}
			default:
				err = assertVar(actx.Engine.Vars(), assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
