package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success: every expect clause and
	// assertion held.
	Pass bool `json:"pass"`

	// Outputs holds the rendered text of each flow step.
	Outputs []string `json:"outputs"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Outputs: []string{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddOutput records the output of the next flow step.
func (r *Result) AddOutput(out string) {
	r.Outputs = append(r.Outputs, out)
}
