package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a render scenario: page texts rendered in order by one
// engine over the fixture database, then assertions on the outputs and the
// engine's final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is an optional site configuration file, relative to the
	// scenario file. Without it the fixture site is used.
	Config string `yaml:"config,omitempty"`

	// Options are set over the site's options, like the --page and --key
	// flags of the CLI.
	Options map[string]string `yaml:"options,omitempty"`

	// Setup holds SQL statements run after the fixture is seeded.
	Setup []string `yaml:"setup,omitempty"`

	// Flow holds the pages to render, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the outputs and the final engine state.
	Assertions []Assertion `yaml:"assertions"`

	// RequestID is an optional fixed request id. If empty, defaults to
	// "test-request".
	RequestID string `yaml:"request_id,omitempty"`
}

// FlowStep is one page render.
type FlowStep struct {
	// Render is the page text.
	Render string `yaml:"render"`

	// Expect is the exact output, when given.
	Expect *string `yaml:"expect,omitempty"`
}

// Assertion validates an output or the final engine state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "output_contains": output of Step contains Text
	// - "output_equals": output of Step equals Text
	// - "var_equals": variable Name renders as Value
	// - "var_unset": variable Name is not set
	// - "result_count": the last result set has Count rows
	// - "where_cleared": no condition is active
	Type string `yaml:"type"`

	Step  int    `yaml:"step,omitempty"`
	Text  string `yaml:"text,omitempty"`
	Name  string `yaml:"name,omitempty"`
	Value string `yaml:"value,omitempty"`
	Count int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertOutputContains = "output_contains"
	AssertOutputEquals   = "output_equals"
	AssertVarEquals      = "var_equals"
	AssertVarUnset       = "var_unset"
	AssertResultCount    = "result_count"
	AssertWhereCleared   = "where_cleared"
)

// LoadScenario reads and parses a scenario YAML file. A relative config
// path is resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Config != "" && !filepath.IsAbs(scenario.Config) {
		scenario.Config = filepath.Join(filepath.Dir(path), scenario.Config)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if s.Config != "" {
		if _, err := os.Stat(s.Config); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", s.Config)
		}
	}

	for i, stmt := range s.Setup {
		if stmt == "" {
			return fmt.Errorf("setup[%d]: statement is empty", i)
		}
	}

	for i, step := range s.Flow {
		if step.Render == "" {
			return fmt.Errorf("flow[%d]: render is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, len(s.Flow)); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOutputContains, AssertOutputEquals:
		if a.Step < 0 || a.Step >= steps {
			return fmt.Errorf("assertions[%d]: step %d out of range", index, a.Step)
		}
		if a.Type == AssertOutputContains && a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertVarEquals, AssertVarUnset:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for %s", index, a.Type)
		}
	case AssertResultCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for result_count", index)
		}
	case AssertWhereCleared:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
